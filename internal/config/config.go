package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sagikazarmark/locafero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var errViperConfigNotFound viper.ConfigFileNotFoundError

type CLIConfig struct {
	Region         string     `mapstructure:"region" yaml:"region"`
	Profile        string     `mapstructure:"profile" yaml:"profile"`
	LogLevel       string     `mapstructure:"log-level" yaml:"log-level"`
	TagKey         string     `mapstructure:"tag-key" yaml:"tag-key"`
	Document       string     `mapstructure:"document" yaml:"document"`
	CommandTimeout int        `mapstructure:"command-timeout" yaml:"command-timeout"`
	MaxConcurrency string     `mapstructure:"max-concurrency" yaml:"max-concurrency"`
	MaxErrors      string     `mapstructure:"max-errors" yaml:"max-errors"`
	SessionCommand string     `mapstructure:"session-command" yaml:"session-command"`
	Poll           PollConfig `mapstructure:"poll" yaml:"poll"`
}

type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	MaxInterval time.Duration `mapstructure:"max-interval" yaml:"max-interval"`
	Multiplier  float64       `mapstructure:"multiplier" yaml:"multiplier"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// flagKeys maps config keys to the name of the flag overriding them.
var flagKeys = map[string]string{
	"config":            "config",
	"region":            "region",
	"profile":           "profile",
	"log-level":         "log-level",
	"tag-key":           "tag-key",
	"document":          "document",
	"command-timeout":   "timeout",
	"max-concurrency":   "max-concurrency",
	"max-errors":        "max-errors",
	"poll.interval":     "poll-interval",
	"poll.max-interval": "poll-max-interval",
	"poll.multiplier":   "poll-multiplier",
	"poll.timeout":      "wait-timeout",
}

// SetupGlobalFlags registers the flags shared by every subcommand.
func SetupGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file path")
	fs.String("region", "", "AWS region (default: from the AWS shared config)")
	fs.String("profile", "", "AWS shared config profile")
	fs.String("log-level", DefaultLogLevel, "log level: debug, info, warn, error")
}

// SetupRunFlags registers the flags of the run subcommand which can also be set in the config file.
func SetupRunFlags(fs *pflag.FlagSet) {
	fs.StringP("tag-key", "k", DefaultTagKey, "tag key used to select the targets")
	fs.StringP("document", "d", DefaultDocument, "SSM document executing the command")
	fs.Int("timeout", 0, "command timeout in seconds (0: document default)")
	fs.String("max-concurrency", "", "maximum number (or percentage) of instances running the command at the same time")
	fs.String("max-errors", "", "number (or percentage) of errors allowed before stopping the command")
	fs.Duration("poll-interval", DefaultPollInterval, "delay between two completion checks")
	fs.Duration("poll-max-interval", DefaultPollMaxInterval, "maximum delay between two completion checks")
	fs.Float64("poll-multiplier", DefaultPollMultiplier, "growth factor of the delay between two completion checks")
	fs.Duration("wait-timeout", DefaultPollTimeout, "stop waiting for completion after this duration (0: wait forever)")
}

func defaultFinder(configFile string) locafero.Finder {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, UserConfDir))
	}
	paths = append(paths, SystemConfDir)

	finder := locafero.Finder{
		Paths: paths,
		Names: locafero.NameWithExtensions(ConfigName, viper.SupportedExts...),
		Type:  locafero.FileTypeFile,
	}

	if configFile != "" {
		path, file := filepath.Split(configFile)
		if path == "" {
			path = "."
		}
		finder.Paths = []string{path}
		finder.Names = []string{file}
	}

	return finder
}

// LoadCLIConfig reads the configuration from, by increasing priority: defaults,
// config file, SSMCTL_* environment variables and flags explicitly set in fs.
//
// An explicit configFile must exist, whereas a missing default config file is
// not an error.
func LoadCLIConfig(configFile string, fs *pflag.FlagSet) (*CLIConfig, error) {
	v := viper.NewWithOptions(viper.WithFinder(defaultFinder(configFile)))

	v.SetDefault("region", "")
	v.SetDefault("profile", "")
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("tag-key", DefaultTagKey)
	v.SetDefault("document", DefaultDocument)
	v.SetDefault("command-timeout", 0)
	v.SetDefault("max-concurrency", "")
	v.SetDefault("max-errors", "")
	v.SetDefault("session-command", DefaultSessionCommand)

	v.SetDefault("poll.interval", DefaultPollInterval)
	v.SetDefault("poll.max-interval", DefaultPollMaxInterval)
	v.SetDefault("poll.multiplier", DefaultPollMultiplier)
	v.SetDefault("poll.timeout", time.Duration(DefaultPollTimeout))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if configFile != "" || !errors.As(err, &errViperConfigNotFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if fs != nil {
		for key, name := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("error binding flag %s: %w", name, err)
			}
		}
	}

	var config CLIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration and normalizes the polling settings.
func (c *CLIConfig) Validate() error {
	if strings.TrimSpace(c.TagKey) == "" {
		return errors.New("tag-key must not be empty")
	}
	if strings.TrimSpace(c.Document) == "" {
		return errors.New("document must not be empty")
	}
	if strings.TrimSpace(c.SessionCommand) == "" {
		return errors.New("session-command must not be empty")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command-timeout must be positive, got %d", c.CommandTimeout)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be strictly positive, got %s", c.Poll.Interval)
	}
	if c.Poll.Multiplier < 1 {
		return fmt.Errorf("poll.multiplier must be at least 1, got %v", c.Poll.Multiplier)
	}
	if c.Poll.Timeout < 0 {
		return fmt.Errorf("poll.timeout must be positive, got %s", c.Poll.Timeout)
	}
	if c.Poll.MaxInterval < c.Poll.Interval {
		c.Poll.MaxInterval = c.Poll.Interval
	}
	return nil
}
