package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/autocompletion"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/connection"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/option"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/style"
	"github.com/jackadi-io/ssmctl/internal/aggregate"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/dispatch"
	"github.com/jackadi-io/ssmctl/internal/parser"
)

// Backend sends commands and reports their results.
type Backend interface {
	dispatch.Submitter
	aggregate.Backend
}

type runOptions struct {
	targeting  Targeting
	comment    string
	parameters []string
}

func RunCommand() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run [-i IDS | -f FILE | -t TAG_VALUE] [OPTION]... -- COMMAND...",
		Short: "Run a shell command on instances and wait for the results",
		Long: `Run a shell command with SSM Run Command and wait for its completion.

Targets are explicit instance IDs and/or the instances tagged TAG_KEY=TAG_VALUE
(TAG_KEY defaults to "service"). The exit code is 1 if any instance returned a
non-zero code.

Examples:
  ssmctl run -t web -- uptime
  ssmctl run -i i-0123,i-4567 -- 'systemctl status nginx'
  ssmctl run -k role -t db --max-concurrency 1 -- sudo apt-get upgrade -y`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				err := errors.New("requires a command to run")
				fmt.Println(style.RenderError(err.Error()))
				_ = cmd.Help()
				os.Exit(1)
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return []string{}, cobra.ShellCompDirectiveNoFileComp
		},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := option.GetConfig()

			req, err := buildRequest(cfg, opts, args)
			if err != nil {
				fmt.Println(style.RenderError(err.Error()))
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			clients, err := connection.Dial(ctx, cfg)
			if err != nil {
				fmt.Println(style.RenderError(style.ErrorMessage(err)))
				os.Exit(1)
			}

			format := option.GetOutputFormat()
			var renderer aggregate.Renderer
			var status io.Writer
			if format == option.FormatText {
				renderer = &textRenderer{w: os.Stdout}
				status = os.Stderr
			}

			outcome, err := runCommand(ctx, clients.CommandRunner(), req, pollPolicy(cfg), renderer, status)
			if err != nil {
				fmt.Println(style.RenderError(style.ErrorMessage(err)))
				os.Exit(1)
			}

			if format != option.FormatText {
				result, err := option.Marshal(format, outcome)
				if err != nil {
					fmt.Println(style.RenderError(fmt.Sprintf("failed to serialize results: %s", err)))
					os.Exit(1)
				}
				fmt.Println(string(result))
			}

			if outcome.Failed {
				stop()
				os.Exit(1)
			}
		},
		GroupID: "operations",
	}

	cmd.Flags().StringVarP(&opts.targeting.Instances, "instances", "i", "", "target instance IDs, separator: ','")
	cmd.Flags().StringVarP(&opts.targeting.InstancesFile, "instances-file", "f", "", "target instance IDs from a file (one ID per line)")
	cmd.Flags().StringVarP(&opts.targeting.TagValue, "tag-value", "t", "", "target the instances whose tag (see --tag-key) has this value")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment attached to the command")
	cmd.Flags().StringArrayVarP(&opts.parameters, "parameter", "p", nil, "extra document parameter: key=value (repeatable)")
	config.SetupRunFlags(cmd.Flags())

	_ = cmd.RegisterFlagCompletionFunc("instances", autocompletion.InstanceIDs)
	_ = cmd.RegisterFlagCompletionFunc("tag-value", autocompletion.TagValues)
	_ = cmd.RegisterFlagCompletionFunc("document", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"AWS-RunShellScript\tLinux shell script",
			"AWS-RunPowerShellScript\tWindows PowerShell script",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func buildRequest(cfg *config.CLIConfig, opts runOptions, args []string) (dispatch.Request, error) {
	spec, err := opts.targeting.Spec(cfg.TagKey)
	if err != nil {
		return dispatch.Request{}, err
	}

	params, err := parser.ParseParameters(opts.parameters)
	if err != nil {
		return dispatch.Request{}, fmt.Errorf("failed to parse parameters: %w", err)
	}

	return dispatch.Request{
		Command:        parser.JoinCommand(args),
		Document:       cfg.Document,
		Parameters:     params,
		Targets:        spec,
		Comment:        opts.comment,
		Timeout:        time.Duration(cfg.CommandTimeout) * time.Second,
		MaxConcurrency: cfg.MaxConcurrency,
		MaxErrors:      cfg.MaxErrors,
	}, nil
}

func pollPolicy(cfg *config.CLIConfig) aggregate.PollPolicy {
	return aggregate.PollPolicy{
		Interval:    cfg.Poll.Interval,
		MaxInterval: cfg.Poll.MaxInterval,
		Multiplier:  cfg.Poll.Multiplier,
		Timeout:     cfg.Poll.Timeout,
	}
}

// runCommand dispatches the request, then waits for and aggregates its
// results. Progress is written to status when it is not nil.
func runCommand(ctx context.Context, backend Backend, req dispatch.Request, policy aggregate.PollPolicy, renderer aggregate.Renderer, status io.Writer) (*aggregate.Outcome, error) {
	handle, err := dispatch.New(backend).Dispatch(ctx, req)
	if err != nil {
		return nil, err
	}

	if status != nil {
		style.Fprint(status, style.Subtitle(fmt.Sprintf("command %s sent to %s, waiting for completion...", handle, req.Targets)))
	}

	aggOpts := []aggregate.Option{aggregate.WithPollPolicy(policy)}
	if renderer != nil {
		aggOpts = append(aggOpts, aggregate.WithRenderer(renderer))
	}

	outcome, err := aggregate.New(backend, aggOpts...).AwaitAndReport(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", handle, err)
	}
	return outcome, nil
}
