package aggregate

import (
	"context"
	"time"

	"github.com/jackadi-io/ssmctl/internal/config"
)

// State is the lifecycle of a submitted command as seen from the client.
type State int

const (
	Pending State = iota
	Complete
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// PollPolicy drives the wait for completion.
//
// The delay between two checks starts at Interval and is multiplied by
// Multiplier after each check, up to MaxInterval. A zero Timeout waits
// until completion or context cancellation.
type PollPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	Timeout     time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    config.DefaultPollInterval,
		MaxInterval: config.DefaultPollMaxInterval,
		Multiplier:  config.DefaultPollMultiplier,
		Timeout:     config.DefaultPollTimeout,
	}
}

func (p PollPolicy) normalized() PollPolicy {
	if p.Interval <= 0 {
		p.Interval = config.DefaultPollInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = p.Interval
	}
	if p.Timeout < 0 {
		p.Timeout = 0
	}
	return p
}

// NextInterval returns the delay following current.
func (p PollPolicy) NextInterval(current time.Duration) time.Duration {
	p = p.normalized()
	if current <= 0 {
		return p.Interval
	}

	next := time.Duration(float64(current) * p.Multiplier)
	if next > p.MaxInterval || next <= 0 {
		return p.MaxInterval
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
