package connection

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/jackadi-io/ssmctl/internal/awscloud"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/inventory"
)

// Clients holds the AWS clients of one CLI invocation.
type Clients struct {
	EC2 *ec2.Client
	SSM *ssm.Client
}

// LoadAWSConfig resolves credentials and region from the AWS shared config,
// overridden by the CLI configuration.
func LoadAWSConfig(ctx context.Context, cfg *config.CLIConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if awsCfg.Region == "" {
		return aws.Config{}, fmt.Errorf("no AWS region configured: use --region, AWS_REGION or the %s profile", profileName(cfg))
	}

	return awsCfg, nil
}

func profileName(cfg *config.CLIConfig) string {
	if cfg.Profile != "" {
		return cfg.Profile
	}
	return "default"
}

func Dial(ctx context.Context, cfg *config.CLIConfig) (*Clients, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Clients{
		EC2: ec2.NewFromConfig(awsCfg),
		SSM: ssm.NewFromConfig(awsCfg),
	}, nil
}

func (c *Clients) Directory() *inventory.Directory {
	return inventory.NewDirectory(awscloud.NewInstanceLister(c.EC2))
}

func (c *Clients) CommandRunner() *awscloud.CommandRunner {
	return awscloud.NewCommandRunner(c.SSM)
}
