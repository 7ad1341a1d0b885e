package instance

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/autocompletion"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/connection"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/menu"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/option"
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/style"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/inventory"
	"github.com/jackadi-io/ssmctl/internal/session"
)

var ErrNoInstance = errors.New("no running instance with a service tag")

func LoginCommand() *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "login [INSTANCE_ID]",
		Short: "Open a session on an instance picked in a menu",
		Long: `Open an interactive SSM session.

Without argument, the running instances having a service tag are listed
grouped by service and the session is opened on the selected one.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: autocompletion.InstanceIDs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := option.GetConfig()
			opener := session.NewExecOpener(cfg.SessionCommand, cfg.Region, cfg.Profile)

			instanceID := ""
			if len(args) == 1 {
				instanceID = args[0]
			} else {
				var err error
				instanceID, err = pickInstance(cmd.Context(), cfg, service)
				if errors.Is(err, menu.ErrAborted) {
					return
				}
				if err != nil {
					fmt.Println(style.RenderError(style.ErrorMessage(err)))
					os.Exit(1)
				}
			}

			if err := opener.Open(cmd.Context(), instanceID); err != nil {
				fmt.Println(style.RenderError(err.Error()))
				os.Exit(1)
			}
		},
		GroupID: "operations",
	}

	cmd.Flags().StringVarP(&service, "service", "s", "", "only list the instances of this service")
	_ = cmd.RegisterFlagCompletionFunc("service", autocompletion.TagValues)

	return cmd
}

func pickInstance(ctx context.Context, cfg *config.CLIConfig, service string) (string, error) {
	listCtx, cancel := context.WithTimeout(ctx, config.APICallTimeout)
	defer cancel()

	clients, err := connection.Dial(listCtx, cfg)
	if err != nil {
		return "", err
	}

	instances, err := clients.Directory().Running(listCtx)
	if err != nil {
		return "", err
	}

	m, err := buildMenu(instances, cfg.TagKey, service)
	if err != nil {
		return "", err
	}

	item, err := m.Select(os.Stdin, os.Stdout)
	if err != nil {
		return "", err
	}
	return item.Value, nil
}

// buildMenu lists the instances grouped by service, services in order of
// first appearance. Items are labeled "<id> - <service>".
func buildMenu(instances []inventory.Instance, tagKey, service string) (*menu.Menu, error) {
	m := &menu.Menu{
		Title:    "All instances",
		Subtitle: "Server",
	}

	for _, group := range inventory.GroupByService(instances, tagKey) {
		if service != "" && group.Service != service {
			continue
		}

		section := menu.Section{Title: group.Service}
		for _, inst := range group.Instances {
			section.Items = append(section.Items, menu.Item{
				Label: fmt.Sprintf("%s - %s", inst.ID, group.Service),
				Value: inst.ID,
			})
		}
		m.Sections = append(m.Sections, section)
	}

	if len(m.Sections) == 0 {
		if service != "" {
			return nil, fmt.Errorf("no running instance with %s=%s", tagKey, service)
		}
		return nil, ErrNoInstance
	}

	return m, nil
}
