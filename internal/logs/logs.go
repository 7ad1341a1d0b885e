// Package logs installs the default slog logger.
//
// It is imported for its side effect by the binaries:
//
//	import _ "github.com/jackadi-io/ssmctl/internal/logs"
package logs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var level = new(slog.LevelVar)

func init() {
	level.Set(slog.LevelWarn)
	if env := os.Getenv("SSMCTL_LOG_LEVEL"); env != "" {
		_ = SetLevel(env)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))
}

// SetLevel changes the level of the default logger: debug, info, warn or error.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level: %q", name)
}
