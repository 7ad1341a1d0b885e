package instance

import (
	"github.com/jackadi-io/ssmctl/cmd/ssmctl/style"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/inventory"
)

const missing = "-"

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}

// prettyInstanceListSprint renders one line per instance, in discovery
// order: ID, service, environment and address.
func prettyInstanceListSprint(instances []inventory.Instance, tagKey string) string {
	if len(instances) == 0 {
		return style.Subtitle("no running instance")
	}

	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		service, _ := inst.Tag(tagKey)
		environment, _ := inst.Tag(config.EnvironmentTagKey)
		rows = append(rows, []string{
			style.RenderID(inst.ID),
			orMissing(service),
			orMissing(environment),
			orMissing(inst.Address()),
		})
	}

	return style.Columns(rows)
}
