package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/shlex"
)

var ErrEmptyCommandLine = errors.New("empty command line")

var parameterRegexp = regexp.MustCompile(`^(?P<key>[a-zA-Z0-9_-]+)=(?P<value>.*)$`)

// ParseParameters extracts document parameters from a list of key=value
// arguments.
//
// The value can be quoted: key="value with spaces". A key given several
// times accumulates its values, in order.
func ParseParameters(args []string) (map[string][]string, error) {
	params := make(map[string][]string)

	for _, arg := range args {
		groups := parameterRegexp.FindStringSubmatch(arg)
		if groups == nil {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", arg)
		}

		value, err := shlex.Split(groups[2])
		if err != nil {
			return nil, fmt.Errorf("failed to process parameter %q: %w", groups[1], err)
		}
		params[groups[1]] = append(params[groups[1]], strings.Join(value, " "))
	}

	return params, nil
}

// CommandLine splits a command line template into its arguments and replaces
// every {name} placeholder with the matching value of vars.
//
// Placeholders are substituted after splitting, so a value containing spaces
// stays a single argument.
func CommandLine(template string, vars map[string]string) ([]string, error) {
	args, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("invalid command line %q: %w", template, err)
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommandLine
	}

	for i, arg := range args {
		for name, value := range vars {
			arg = strings.ReplaceAll(arg, "{"+name+"}", value)
		}
		args[i] = arg
	}

	return args, nil
}

var shellSafeRegexp = regexp.MustCompile(`^[a-zA-Z0-9_@%+=:,./-]+$`)

// ShellQuote quotes an argument for a POSIX shell. Arguments made of safe
// characters only are returned unchanged.
func ShellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if shellSafeRegexp.MatchString(arg) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
}

// JoinCommand builds a shell command string from its arguments.
//
// A single argument is the command string itself and is kept as is. Several
// arguments are quoted one by one so that the remote shell splits them the
// same way.
func JoinCommand(args []string) string {
	if len(args) == 1 {
		return args[0]
	}

	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		quoted = append(quoted, ShellQuote(arg))
	}
	return strings.Join(quoted, " ")
}
