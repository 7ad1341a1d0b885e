package instance

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/connection"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/option"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/style"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/inventory"
)

func ListCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list [--query EXPR]",
		Short: "List the running instances",
		Long: `List the running instances: ID, service, environment and address.

The query filters the instances locally, for example:
  ssmctl list --query 'tags.service==web and zone=~eu-west-1*'
  ssmctl list --query 'name=~/^db-[0-9]+$/ or id==i-0123,i-4567'`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := option.GetConfig()

			ctx, cancel := context.WithTimeout(cmd.Context(), config.APICallTimeout)
			defer cancel()

			clients, err := connection.Dial(ctx, cfg)
			if err != nil {
				fmt.Println(style.RenderError(style.ErrorMessage(err)))
				os.Exit(1)
			}

			instances, err := listInstances(ctx, clients.Directory(), query)
			if err != nil {
				fmt.Println(style.RenderError(style.ErrorMessage(err)))
				os.Exit(1)
			}

			format := option.GetOutputFormat()
			if format != option.FormatText {
				result, err := option.Marshal(format, instances)
				if err != nil {
					fmt.Println(style.RenderError(fmt.Sprintf("failed to serialize instances: %s", err)))
					os.Exit(1)
				}
				fmt.Println(string(result))
				return
			}

			style.PrettyPrint(prettyInstanceListSprint(instances, cfg.TagKey))
		},
		GroupID: "operations",
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter instances: field==value, field=~glob, field=~/regex/, joined by 'and'/'or'")

	return cmd
}

func listInstances(ctx context.Context, dir *inventory.Directory, query string) ([]inventory.Instance, error) {
	instances, err := dir.Running(ctx)
	if err != nil {
		return nil, err
	}

	if query == "" {
		return instances, nil
	}
	return inventory.Filter(instances, query)
}
