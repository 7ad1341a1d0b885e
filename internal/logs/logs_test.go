package logs

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		"debug":        {in: "debug", want: slog.LevelDebug},
		"upper case":   {in: "INFO", want: slog.LevelInfo},
		"warning":      {in: "warning", want: slog.LevelWarn},
		"empty":        {in: "", want: slog.LevelWarn},
		"error spaced": {in: " error ", want: slog.LevelError},
		"unknown":      {in: "verbose", want: slog.LevelWarn, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { level.Set(slog.LevelWarn) })

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", level.Level())
	}

	if err := SetLevel("nope"); err == nil {
		t.Error("expected error for unknown level")
	}
	if level.Level() != slog.LevelDebug {
		t.Errorf("level changed on invalid input: %v", level.Level())
	}
}
