package autocompletion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/connection"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/inventory"
)

const completionTimeout = 10 * time.Second

// runningInstances lists the instances with the configuration given on the
// command line being completed. Hooks do not run during completion.
func runningInstances(cmd *cobra.Command) ([]inventory.Instance, *config.CLIConfig) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCLIConfig(configFile, cmd.Flags())
	if err != nil {
		slog.Debug("completion: failed to load config", "error", err)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	clients, err := connection.Dial(ctx, cfg)
	if err != nil {
		slog.Debug("completion: failed to connect", "error", err)
		return nil, cfg
	}

	instances, err := clients.Directory().Running(ctx)
	if err != nil {
		slog.Debug("completion: failed to list instances", "error", err)
		return nil, cfg
	}
	return instances, cfg
}

// InstanceIDs completes a comma separated list of instance IDs.
func InstanceIDs(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	instances, _ := runningInstances(cmd)
	return InstanceListCompletions(instances, toComplete), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// TagValues completes the values of the tag selected by the tag-key flag.
func TagValues(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	instances, cfg := runningInstances(cmd)
	if cfg == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return TagValueCompletions(instances, cfg.TagKey, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// InstanceListCompletions returns the candidates for the last element of a
// comma separated list, skipping the IDs already in the list.
func InstanceListCompletions(instances []inventory.Instance, toComplete string) []string {
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, config.ListSeparator); i >= 0 {
		prefix, current = toComplete[:i+1], toComplete[i+1:]
	}
	selected := strings.Split(prefix, config.ListSeparator)

	completions := []string{}
	for _, inst := range instances {
		if !strings.HasPrefix(inst.ID, current) || slices.Contains(selected, inst.ID) {
			continue
		}
		completions = append(completions, fmt.Sprintf("%s%s\t%s", prefix, inst.ID, describe(inst)))
	}
	return completions
}

func TagValueCompletions(instances []inventory.Instance, key, toComplete string) []string {
	completions := []string{}
	for _, v := range inventory.Services(instances, key) {
		if strings.HasPrefix(v, toComplete) {
			completions = append(completions, v)
		}
	}
	return completions
}

func describe(inst inventory.Instance) string {
	parts := []string{}
	for _, p := range []string{inst.Name, inst.Service(), inst.Address()} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
