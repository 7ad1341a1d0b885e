package aggregate

import (
	"github.com/jackadi-io/ssmctl/internal/dispatch"
)

// UnitResult is the result of one execution unit (document plugin or step)
// on one instance.
type UnitResult struct {
	Name         string `json:"name" yaml:"name"`
	Output       string `json:"output" yaml:"output"`
	ResponseCode int    `json:"responseCode" yaml:"responseCode"`
	Status       string `json:"status" yaml:"status"`
}

func (u UnitResult) Failed() bool {
	return u.ResponseCode != 0
}

// Invocation is the execution of the command on one instance.
type Invocation struct {
	InstanceID    string       `json:"instanceId" yaml:"instanceId"`
	InstanceName  string       `json:"instanceName,omitempty" yaml:"instanceName,omitempty"`
	Status        string       `json:"status" yaml:"status"`
	StatusDetails string       `json:"statusDetails,omitempty" yaml:"statusDetails,omitempty"`
	Units         []UnitResult `json:"units" yaml:"units"`
}

// Failed reports whether at least one unit returned a non-zero response code.
func (i Invocation) Failed() bool {
	for _, u := range i.Units {
		if u.Failed() {
			return true
		}
	}
	return false
}

// InvocationPage is one page of the detailed results of a command.
type InvocationPage struct {
	Invocations []Invocation
	NextToken   string
}

// FailedUnit locates a unit with a non-zero response code.
type FailedUnit struct {
	InstanceID string     `json:"instanceId" yaml:"instanceId"`
	Unit       UnitResult `json:"unit" yaml:"unit"`
}

// Outcome is the aggregated result of a command.
//
// Failed is true if and only if one unit of any invocation has a non-zero
// response code. A command without invocation succeeds.
type Outcome struct {
	Handle      dispatch.Handle `json:"commandId" yaml:"commandId"`
	Invocations []Invocation    `json:"invocations" yaml:"invocations"`
	Failed      bool            `json:"failed" yaml:"failed"`
}

func NewOutcome(handle dispatch.Handle, invocations []Invocation) *Outcome {
	o := &Outcome{Handle: handle, Invocations: invocations}
	if o.Invocations == nil {
		o.Invocations = []Invocation{}
	}
	for _, inv := range o.Invocations {
		if inv.Failed() {
			o.Failed = true
			break
		}
	}
	return o
}

func (o *Outcome) Succeeded() bool {
	return !o.Failed
}

// FailedUnits lists the units with a non-zero response code, in result order.
func (o *Outcome) FailedUnits() []FailedUnit {
	failed := []FailedUnit{}
	for _, inv := range o.Invocations {
		for _, u := range inv.Units {
			if u.Failed() {
				failed = append(failed, FailedUnit{InstanceID: inv.InstanceID, Unit: u})
			}
		}
	}
	return failed
}

// Renderer displays the results while they are aggregated.
//
// Invocation is called once per instance, in backend order, followed by Unit
// for each of its units. Done is called once every result is rendered.
type Renderer interface {
	Invocation(inv Invocation)
	Unit(inv Invocation, unit UnitResult)
	Done(outcome *Outcome)
}
