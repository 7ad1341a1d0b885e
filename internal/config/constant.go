package config

import "time"

const (
	// Grammar.
	ListSeparator       = ","
	PlaceholderInstance = "instance"

	// Instance tags used as selection and display dimensions.
	DefaultTagKey     = "service"
	EnvironmentTagKey = "environment"
	NameTagKey        = "Name"

	// Remote execution.
	DefaultDocument           = "AWS-RunShellScript"
	DocumentCommandsParameter = "commands"
	RunningState              = "running"
	CompleteStage             = "Complete" // SSM ExecutionStage reached once every invocation is terminal.

	// Interactive session.
	DefaultSessionCommand = "aws ssm start-session --target {instance}"

	// Timing and duration config.
	DefaultPollInterval    = 1 * time.Second
	DefaultPollMaxInterval = 1 * time.Second
	DefaultPollMultiplier  = 1.0
	DefaultPollTimeout     = 0 // no timeout: the wait is unbounded.
	APICallTimeout         = 1 * time.Minute

	// Pagination.
	DescribeInstancesPageSize = 1000
	InvocationsPageSize       = 50 // maximum accepted by ListCommandInvocations.

	// Logging.
	DefaultLogLevel = "warn"

	// File and directory paths.
	ConfigName    = "ssmctl"
	EnvPrefix     = "SSMCTL"
	SystemConfDir = "/etc/ssmctl"
	UserConfDir   = ".config/ssmctl" // relative to $HOME.
)
