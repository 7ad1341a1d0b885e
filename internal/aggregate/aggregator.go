// Package aggregate waits for a submitted command to complete, then collects,
// renders and reduces its per-instance results into a single outcome.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackadi-io/ssmctl/internal/dispatch"
)

var ErrWaitTimeout = errors.New("timeout waiting for the command to complete")

// Backend exposes the command status and results.
type Backend interface {
	// CountComplete returns the number of records of the command having
	// reached the complete stage.
	CountComplete(ctx context.Context, handle dispatch.Handle) (int, error)
	// ListInvocations returns a page of detailed results. An empty
	// nextToken requests the first page.
	ListInvocations(ctx context.Context, handle dispatch.Handle, nextToken string) (InvocationPage, error)
}

type Aggregator struct {
	backend  Backend
	policy   PollPolicy
	renderer Renderer
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

type Option func(*Aggregator)

func WithPollPolicy(policy PollPolicy) Option {
	return func(a *Aggregator) {
		a.policy = policy.normalized()
	}
}

// WithRenderer displays results as they are aggregated.
func WithRenderer(r Renderer) Option {
	return func(a *Aggregator) {
		a.renderer = r
	}
}

func New(backend Backend, opts ...Option) *Aggregator {
	a := &Aggregator{
		backend: backend,
		policy:  DefaultPollPolicy(),
		sleep:   sleepContext,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State queries the backend once.
func (a *Aggregator) State(ctx context.Context, handle dispatch.Handle) (State, error) {
	count, err := a.backend.CountComplete(ctx, handle)
	if err != nil {
		return Pending, fmt.Errorf("failed to get command status: %w", err)
	}
	if count > 0 {
		return Complete, nil
	}
	return Pending, nil
}

// Wait blocks until the command reaches the complete stage.
//
// It returns ctx.Err() on cancellation and ErrWaitTimeout when the policy
// timeout is exceeded. Status errors are returned without retry.
func (a *Aggregator) Wait(ctx context.Context, handle dispatch.Handle) error {
	start := a.now()
	interval := a.policy.Interval

	for attempt := 1; ; attempt++ {
		state, err := a.State(ctx, handle)
		if err != nil {
			return err
		}
		slog.Debug("command status", "id", handle, "state", state, "attempt", attempt)
		if state == Complete {
			return nil
		}

		delay := interval
		if a.policy.Timeout > 0 {
			remaining := a.policy.Timeout - a.now().Sub(start)
			if remaining <= 0 {
				return fmt.Errorf("%w (%s)", ErrWaitTimeout, a.policy.Timeout)
			}
			delay = min(delay, remaining)
		}

		if err := a.sleep(ctx, delay); err != nil {
			return err
		}
		interval = a.policy.NextInterval(interval)
	}
}

// Collect retrieves every invocation of the command, following pagination.
func (a *Aggregator) Collect(ctx context.Context, handle dispatch.Handle) ([]Invocation, error) {
	invocations := []Invocation{}
	token := ""
	for {
		page, err := a.backend.ListInvocations(ctx, handle, token)
		if err != nil {
			return nil, fmt.Errorf("failed to get command results: %w", err)
		}
		invocations = append(invocations, page.Invocations...)

		if page.NextToken == "" || page.NextToken == token {
			return invocations, nil
		}
		token = page.NextToken
	}
}

// AwaitAndReport waits for the completion of the command, retrieves its
// results once, renders them and returns the aggregated outcome.
//
// A returned error means the results could not be retrieved. A failed
// remote execution is not an error: it is reported by Outcome.Failed.
func (a *Aggregator) AwaitAndReport(ctx context.Context, handle dispatch.Handle) (*Outcome, error) {
	if err := a.Wait(ctx, handle); err != nil {
		return nil, err
	}

	invocations, err := a.Collect(ctx, handle)
	if err != nil {
		return nil, err
	}

	outcome := NewOutcome(handle, invocations)
	if len(outcome.Invocations) == 0 {
		slog.Warn("command completed without any invocation: no instance matched the targets", "id", handle)
	}

	if a.renderer != nil {
		for _, inv := range outcome.Invocations {
			a.renderer.Invocation(inv)
			for _, unit := range inv.Units {
				a.renderer.Unit(inv, unit)
			}
		}
		a.renderer.Done(outcome)
	}

	slog.Debug("command aggregated", "id", handle, "invocations", len(outcome.Invocations), "failed", outcome.Failed)
	return outcome, nil
}
