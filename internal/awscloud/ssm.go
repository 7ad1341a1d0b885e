package awscloud

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/jackadi-io/ssmctl/internal/aggregate"
	"github.com/jackadi-io/ssmctl/internal/apierror"
	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/dispatch"
	"github.com/jackadi-io/ssmctl/internal/helper"
)

// maxCommentLength is the longest comment accepted by SendCommand.
const maxCommentLength = 100

// SSMAPI is the subset of the SSM client used to run commands.
type SSMAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
	ListCommands(ctx context.Context, params *ssm.ListCommandsInput, optFns ...func(*ssm.Options)) (*ssm.ListCommandsOutput, error)
	ListCommandInvocations(ctx context.Context, params *ssm.ListCommandInvocationsInput, optFns ...func(*ssm.Options)) (*ssm.ListCommandInvocationsOutput, error)
}

// CommandRunner sends commands with SSM Run Command and reads their results.
type CommandRunner struct {
	client SSMAPI
}

func NewCommandRunner(client SSMAPI) *CommandRunner {
	return &CommandRunner{client: client}
}

// Submit sends the command. Explicit instances and the tag filter are both
// forwarded.
func (r *CommandRunner) Submit(ctx context.Context, req dispatch.Request) (dispatch.Handle, error) {
	input := &ssm.SendCommandInput{
		DocumentName: aws.String(req.Document),
		Parameters:   req.DocumentParameters(),
	}

	if req.Targets.HasInstances() {
		input.InstanceIds = req.Targets.InstanceIDs
	}
	if req.Targets.HasTagFilter() {
		input.Targets = []types.Target{
			{
				Key:    aws.String("tag:" + req.Targets.Tag.Key),
				Values: []string{req.Targets.Tag.Value},
			},
		}
	}
	if req.Comment != "" {
		input.Comment = aws.String(truncateComment(req.Comment))
	}
	if req.Timeout > 0 {
		input.TimeoutSeconds = aws.Int32(helper.DurationToInt32(req.Timeout))
	}
	if req.MaxConcurrency != "" {
		input.MaxConcurrency = aws.String(req.MaxConcurrency)
	}
	if req.MaxErrors != "" {
		input.MaxErrors = aws.String(req.MaxErrors)
	}

	callCtx, cancel := context.WithTimeout(ctx, config.APICallTimeout)
	defer cancel()

	out, err := r.client.SendCommand(callCtx, input)
	if err != nil {
		return "", apierror.Classify("SendCommand", err)
	}
	if out.Command == nil || aws.ToString(out.Command.CommandId) == "" {
		return "", errors.New("SendCommand: no command ID in response")
	}

	return dispatch.Handle(aws.ToString(out.Command.CommandId)), nil
}

// CountComplete returns the number of commands matching the handle which
// reached the complete execution stage.
func (r *CommandRunner) CountComplete(ctx context.Context, handle dispatch.Handle) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.APICallTimeout)
	defer cancel()

	out, err := r.client.ListCommands(callCtx, &ssm.ListCommandsInput{
		CommandId: aws.String(string(handle)),
		Filters: []types.CommandFilter{
			{
				Key:   types.CommandFilterKeyExecutionStage,
				Value: aws.String(config.CompleteStage),
			},
		},
	})
	if err != nil {
		return 0, apierror.Classify("ListCommands", err)
	}

	return len(out.Commands), nil
}

// ListInvocations returns one page of the per-instance results, with the
// output of every plugin.
func (r *CommandRunner) ListInvocations(ctx context.Context, handle dispatch.Handle, nextToken string) (aggregate.InvocationPage, error) {
	input := &ssm.ListCommandInvocationsInput{
		CommandId:  aws.String(string(handle)),
		Details:    true,
		MaxResults: aws.Int32(config.InvocationsPageSize),
	}
	if nextToken != "" {
		input.NextToken = aws.String(nextToken)
	}

	callCtx, cancel := context.WithTimeout(ctx, config.APICallTimeout)
	defer cancel()

	out, err := r.client.ListCommandInvocations(callCtx, input)
	if err != nil {
		return aggregate.InvocationPage{}, apierror.Classify("ListCommandInvocations", err)
	}

	page := aggregate.InvocationPage{
		Invocations: make([]aggregate.Invocation, 0, len(out.CommandInvocations)),
		NextToken:   aws.ToString(out.NextToken),
	}
	for _, inv := range out.CommandInvocations {
		page.Invocations = append(page.Invocations, toInvocation(inv))
	}

	return page, nil
}

func toInvocation(in types.CommandInvocation) aggregate.Invocation {
	out := aggregate.Invocation{
		InstanceID:    aws.ToString(in.InstanceId),
		InstanceName:  aws.ToString(in.InstanceName),
		Status:        string(in.Status),
		StatusDetails: aws.ToString(in.StatusDetails),
		Units:         make([]aggregate.UnitResult, 0, len(in.CommandPlugins)),
	}

	for _, plugin := range in.CommandPlugins {
		out.Units = append(out.Units, aggregate.UnitResult{
			Name:         aws.ToString(plugin.Name),
			Output:       aws.ToString(plugin.Output),
			ResponseCode: int(plugin.ResponseCode),
			Status:       string(plugin.Status),
		})
	}

	return out
}

// truncateComment cuts the comment to maxCommentLength bytes without
// splitting a character.
func truncateComment(comment string) string {
	if len(comment) <= maxCommentLength {
		return comment
	}
	end := maxCommentLength
	for end > 0 && !utf8.RuneStart(comment[end]) {
		end--
	}
	return comment[:end]
}
