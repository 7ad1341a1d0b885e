// Package session opens interactive shell sessions on instances.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"

	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/parser"
)

var ErrEmptyInstance = errors.New("empty instance ID")

// Opener attaches the terminal to a remote session on an instance. It
// returns when the session ends.
type Opener interface {
	Open(ctx context.Context, instanceID string) error
}

// ExecOpener opens sessions by running a local command, the AWS CLI
// session manager plugin by default.
type ExecOpener struct {
	// Template is the command line, {instance} is replaced by the instance ID.
	Template string
	Region   string
	Profile  string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	run func(cmd *exec.Cmd) error
}

func NewExecOpener(template, region, profile string) *ExecOpener {
	if template == "" {
		template = config.DefaultSessionCommand
	}
	return &ExecOpener{
		Template: template,
		Region:   region,
		Profile:  profile,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		run:      (*exec.Cmd).Run,
	}
}

// Command builds the session command for the instance.
func (o *ExecOpener) Command(ctx context.Context, instanceID string) (*exec.Cmd, error) {
	if instanceID == "" {
		return nil, ErrEmptyInstance
	}

	args, err := parser.CommandLine(o.Template, map[string]string{config.PlaceholderInstance: instanceID})
	if err != nil {
		return nil, fmt.Errorf("invalid session command: %w", err)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = os.Environ()
	if o.Region != "" {
		cmd.Env = append(cmd.Env, "AWS_REGION="+o.Region)
	}
	if o.Profile != "" {
		cmd.Env = append(cmd.Env, "AWS_PROFILE="+o.Profile)
	}
	cmd.Stdin = o.Stdin
	cmd.Stdout = o.Stdout
	cmd.Stderr = o.Stderr

	return cmd, nil
}

// Open runs the session command in the foreground.
//
// SIGINT is ignored by ssmctl while the session runs: it belongs to the
// remote shell.
func (o *ExecOpener) Open(ctx context.Context, instanceID string) error {
	cmd, err := o.Command(ctx, instanceID)
	if err != nil {
		return err
	}

	signal.Ignore(os.Interrupt)
	defer signal.Reset(os.Interrupt)

	slog.Debug("opening session", "instance", instanceID, "command", cmd.Args)

	run := o.run
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(cmd); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("session on %s ended with exit code %d", instanceID, exitErr.ExitCode())
		}
		return fmt.Errorf("failed to open session on %s: %w", instanceID, err)
	}

	return nil
}
