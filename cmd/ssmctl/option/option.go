package option

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/serializer"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var Formats = []string{FormatText, FormatJSON, FormatYAML}

var OutputFormat *string

// Config is loaded before any subcommand runs.
var Config *config.CLIConfig

func GetOutputFormat() string {
	if OutputFormat == nil || *OutputFormat == "" {
		return FormatText
	}
	return *OutputFormat
}

func ValidateOutputFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q, expected one of %v", format, Formats)
}

// GetConfig returns the loaded configuration, or the defaults.
func GetConfig() *config.CLIConfig {
	if Config != nil {
		return Config
	}
	cfg, err := config.LoadCLIConfig("", nil)
	if err != nil {
		return &config.CLIConfig{
			TagKey:         config.DefaultTagKey,
			Document:       config.DefaultDocument,
			SessionCommand: config.DefaultSessionCommand,
		}
	}
	return cfg
}

// Marshal serializes v in a structured output format.
func Marshal(format string, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		return serializer.JSON.MarshalIndent(v, "", "  ")
	case FormatYAML:
		return yaml.MarshalWithOptions(v, yaml.UseLiteralStyleIfMultiline(true))
	}
	return nil, errors.New("text format cannot be marshaled")
}
