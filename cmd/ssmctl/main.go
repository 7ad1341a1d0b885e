package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/option"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/subcommand/command"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/subcommand/instance"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/logs"
)

var version = "dev"
var commit = "N/A"
var date = "N/A"

func sprintVersion() string {
	if version != "dev" {
		version = fmt.Sprintf("v%s", version)
	}
	return fmt.Sprintf("%s (commit: %s, build date: %s)\n", version, commit, date)
}

// loadOptions loads the configuration of the executed command.
func loadOptions(cmd *cobra.Command, _ []string) error {
	if err := option.ValidateOutputFormat(option.GetOutputFormat()); err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCLIConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	if err := logs.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	option.Config = cfg
	return nil
}

func main() {
	var completionCmd = &cobra.Command{
		Use:       "completion [bash|zsh|fish]",
		Short:     "Generate shell completion scripts",
		ValidArgs: []string{"bash", "zsh", "fish"},
		Annotations: map[string]string{
			"commandType": "main",
		},
		Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				_ = cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				_ = cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				_ = cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			}
			return nil
		},
	}

	rootCmd := &cobra.Command{
		Use:               "ssmctl",
		Short:             "ssmctl lists EC2 instances, opens SSM sessions and runs commands on them.",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: loadOptions,
	}
	rootCmd.SetVersionTemplate(sprintVersion())
	rootCmd.AddGroup(
		&cobra.Group{
			ID:    "operations",
			Title: "Operations:",
		},
	)

	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(instance.ListCommand())
	rootCmd.AddCommand(instance.LoginCommand())
	rootCmd.AddCommand(command.RunCommand())

	config.SetupGlobalFlags(rootCmd.PersistentFlags())
	option.OutputFormat = rootCmd.PersistentFlags().StringP("output", "o", option.FormatText, "output format: text, json or yaml")
	_ = rootCmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(option.Formats, cobra.ShellCompDirectiveNoFileComp))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions([]string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
