package command

import (
	"fmt"
	"io"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/style"
	"github.com/jackadi-io/ssmctl/internal/aggregate"
)

// textRenderer prints the results as they are aggregated.
type textRenderer struct {
	w io.Writer
}

func (r *textRenderer) Invocation(inv aggregate.Invocation) {
	title := inv.InstanceID
	if inv.InstanceName != "" {
		title = fmt.Sprintf("%s (%s)", inv.InstanceID, inv.InstanceName)
	}

	in := style.Title(title)
	if len(inv.Units) == 0 {
		in += style.InlineBlockTitle("status") + inv.Status
		if inv.StatusDetails != "" && inv.StatusDetails != inv.Status {
			in += fmt.Sprintf(" (%s)", inv.StatusDetails)
		}
		in += "\n"
	}
	style.Fprint(r.w, in)
}

func (r *textRenderer) Unit(inv aggregate.Invocation, unit aggregate.UnitResult) {
	in := ""
	if unit.Output != "" {
		in += style.BlockTitle(unitTitle(unit))
		in += style.Block(unit.Output)
	} else {
		in += style.InlineBlockTitle(unitTitle(unit))
		in += style.Emph("empty")
	}

	in += style.InlineBlockTitle("retcode")
	in += style.Status(unit.ResponseCode, inv.Status)
	in += "\n"

	style.Fprint(r.w, in)
}

func unitTitle(unit aggregate.UnitResult) string {
	if unit.Name == "" {
		return "output"
	}
	return fmt.Sprintf("output %s", unit.Name)
}

func (r *textRenderer) Done(outcome *aggregate.Outcome) {
	failed := outcome.FailedUnits()
	summary := fmt.Sprintf("%d instance(s), %d failed unit(s)", len(outcome.Invocations), len(failed))

	in := style.Subtitle(fmt.Sprintf("command %s", outcome.Handle))
	for _, f := range failed {
		in += style.Item(fmt.Sprintf("%s: %s returned %d", f.InstanceID, unitTitle(f.Unit), f.Unit.ResponseCode))
	}
	if outcome.Failed {
		in += style.RenderError("✗ " + summary)
	} else {
		in += style.RenderSuccess("✓ " + summary)
	}
	style.Fprint(r.w, in)
}
