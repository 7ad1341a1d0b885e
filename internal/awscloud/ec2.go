// Package awscloud adapts the AWS EC2 and SSM APIs to the inventory, dispatch
// and aggregate packages.
package awscloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/jackadi-io/ssmctl/internal/apierror"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/inventory"
)

// EC2API is the subset of the EC2 client used to list instances.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// InstanceLister lists the running instances with DescribeInstances.
type InstanceLister struct {
	client EC2API
}

func NewInstanceLister(client EC2API) *InstanceLister {
	return &InstanceLister{client: client}
}

// ListRunning returns every running instance, following pagination.
func (l *InstanceLister) ListRunning(ctx context.Context) ([]inventory.Instance, error) {
	paginator := ec2.NewDescribeInstancesPaginator(l.client, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{config.RunningState},
			},
		},
		MaxResults: aws.Int32(config.DescribeInstancesPageSize),
	})

	instances := []inventory.Instance{}
	for paginator.HasMorePages() {
		callCtx, cancel := context.WithTimeout(ctx, config.APICallTimeout)
		page, err := paginator.NextPage(callCtx)
		cancel()
		if err != nil {
			return nil, apierror.Classify("DescribeInstances", err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, toInstance(instance))
			}
		}
	}

	return instances, nil
}

func toInstance(in types.Instance) inventory.Instance {
	out := inventory.Instance{
		ID:             aws.ToString(in.InstanceId),
		PrivateAddress: aws.ToString(in.PrivateIpAddress),
		PublicAddress:  aws.ToString(in.PublicIpAddress),
		Type:           string(in.InstanceType),
		LaunchTime:     aws.ToTime(in.LaunchTime),
		Tags:           make([]inventory.Tag, 0, len(in.Tags)),
	}

	if in.State != nil {
		out.State = string(in.State.Name)
	}
	if in.Placement != nil {
		out.Zone = aws.ToString(in.Placement.AvailabilityZone)
	}

	for _, tag := range in.Tags {
		t := inventory.Tag{Key: aws.ToString(tag.Key), Value: aws.ToString(tag.Value)}
		if t.Key == config.NameTagKey {
			out.Name = t.Value
		}
		out.Tags = append(out.Tags, t)
	}

	return out
}
