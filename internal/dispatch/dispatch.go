// Package dispatch submits one remote command to a set of targets.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/target"
)

var ErrEmptyCommand = errors.New("empty command")
var ErrEmptyDocument = errors.New("empty document name")
var ErrInvalidTimeout = errors.New("invalid timeout")

// Range of the execution timeout accepted by the backend.
const (
	MinTimeout = 30 * time.Second
	MaxTimeout = 30 * 24 * time.Hour
)

// Handle identifies a submitted command. It is opaque and passed unchanged
// to the result aggregation.
type Handle string

// Request is a command to run on the instances selected by Targets.
type Request struct {
	Command        string
	Document       string
	Parameters     map[string][]string // extra document parameters.
	Targets        target.Spec
	Comment        string
	Timeout        time.Duration // zero keeps the document default.
	MaxConcurrency string
	MaxErrors      string
}

// DocumentParameters returns the parameters sent with the document: the
// extra parameters and the command itself.
func (r Request) DocumentParameters() map[string][]string {
	params := make(map[string][]string, len(r.Parameters)+1)
	maps.Copy(params, r.Parameters)
	params[config.DocumentCommandsParameter] = []string{r.Command}
	return params
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return ErrEmptyCommand
	}
	if strings.TrimSpace(r.Document) == "" {
		return ErrEmptyDocument
	}
	if r.Timeout != 0 && (r.Timeout < MinTimeout || r.Timeout > MaxTimeout) {
		return fmt.Errorf("%w: %s, expected 0 or between %s and %s", ErrInvalidTimeout, r.Timeout, MinTimeout, MaxTimeout)
	}
	return r.Targets.Validate()
}

// Submitter is the backend accepting commands.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Handle, error)
}

type Dispatcher struct {
	submitter Submitter
}

func New(submitter Submitter) *Dispatcher {
	return &Dispatcher{submitter: submitter}
}

// Dispatch validates the request and submits it exactly once.
//
// Authorization failures match apierror.ErrNotAuthorized. Any failure means
// nothing was started: there is no partial success.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Handle, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	slog.Debug("sending command", "document", req.Document, "targets", req.Targets.String(), "command", req.Command)

	handle, err := d.submitter.Submit(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}
	if handle == "" {
		return "", errors.New("failed to send command: no command ID returned")
	}

	slog.Info("command sent", "id", handle, "targets", req.Targets.String())
	return handle, nil
}
