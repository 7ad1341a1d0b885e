package awscloud

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackadi-io/ssmctl/internal/aggregate"
	"github.com/jackadi-io/ssmctl/internal/apierror"
	"github.com/jackadi-io/ssmctl/internal/dispatch"
	"github.com/jackadi-io/ssmctl/internal/target"
)

type fakeSSM struct {
	sendInput  *ssm.SendCommandInput
	sendOutput *ssm.SendCommandOutput

	listInputs []*ssm.ListCommandsInput
	commands   []types.Command

	invocationInputs []*ssm.ListCommandInvocationsInput
	invocationPages  map[string]*ssm.ListCommandInvocationsOutput

	err error
}

func (f *fakeSSM) SendCommand(_ context.Context, params *ssm.SendCommandInput, _ ...func(*ssm.Options)) (*ssm.SendCommandOutput, error) {
	f.sendInput = params
	if f.err != nil {
		return nil, f.err
	}
	return f.sendOutput, nil
}

func (f *fakeSSM) ListCommands(_ context.Context, params *ssm.ListCommandsInput, _ ...func(*ssm.Options)) (*ssm.ListCommandsOutput, error) {
	f.listInputs = append(f.listInputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.ListCommandsOutput{Commands: f.commands}, nil
}

func (f *fakeSSM) ListCommandInvocations(_ context.Context, params *ssm.ListCommandInvocationsInput, _ ...func(*ssm.Options)) (*ssm.ListCommandInvocationsOutput, error) {
	f.invocationInputs = append(f.invocationInputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.invocationPages[aws.ToString(params.NextToken)], nil
}

func TestSubmit(t *testing.T) {
	client := &fakeSSM{sendOutput: &ssm.SendCommandOutput{Command: &types.Command{CommandId: aws.String("cmd-1")}}}

	handle, err := NewCommandRunner(client).Submit(context.Background(), dispatch.Request{
		Command:        "uptime",
		Document:       "AWS-RunShellScript",
		Targets:        target.Parse("i-1,i-2", "service", "web"),
		Comment:        strings.Repeat("c", 150),
		Timeout:        90 * time.Second,
		MaxConcurrency: "50%",
		MaxErrors:      "1",
	})
	require.NoError(t, err)
	assert.Equal(t, dispatch.Handle("cmd-1"), handle)

	in := client.sendInput
	assert.Equal(t, "AWS-RunShellScript", aws.ToString(in.DocumentName))
	assert.Equal(t, []string{"i-1", "i-2"}, in.InstanceIds)
	require.Len(t, in.Targets, 1)
	assert.Equal(t, "tag:service", aws.ToString(in.Targets[0].Key))
	assert.Equal(t, []string{"web"}, in.Targets[0].Values)
	if diff := cmp.Diff(in.Parameters, map[string][]string{"commands": {"uptime"}}); diff != "" {
		t.Errorf("Mismatch (-got +want):\n%s", diff)
	}
	assert.Len(t, aws.ToString(in.Comment), 100)
	assert.Equal(t, int32(90), aws.ToInt32(in.TimeoutSeconds))
	assert.Equal(t, "50%", aws.ToString(in.MaxConcurrency))
	assert.Equal(t, "1", aws.ToString(in.MaxErrors))
}

func TestTruncateComment(t *testing.T) {
	tests := map[string]struct {
		comment string
		want    string
	}{
		"short":            {comment: "deploy", want: "deploy"},
		"exact":            {comment: strings.Repeat("c", 100), want: strings.Repeat("c", 100)},
		"ascii cut":        {comment: strings.Repeat("c", 101), want: strings.Repeat("c", 100)},
		"multi-byte kept":  {comment: strings.Repeat("c", 98) + "é", want: strings.Repeat("c", 98) + "é"},
		"multi-byte split": {comment: strings.Repeat("c", 99) + "é", want: strings.Repeat("c", 99)},
		"wide rune split":  {comment: strings.Repeat("c", 98) + "€€", want: strings.Repeat("c", 98)},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := truncateComment(tt.comment)
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("Mismatch (-got +want):\n%s", diff)
			}
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, len(got), maxCommentLength)
		})
	}
}

func TestSubmitTagOnly(t *testing.T) {
	client := &fakeSSM{sendOutput: &ssm.SendCommandOutput{Command: &types.Command{CommandId: aws.String("cmd-1")}}}

	_, err := NewCommandRunner(client).Submit(context.Background(), dispatch.Request{
		Command:  "uptime",
		Document: "AWS-RunShellScript",
		Targets:  target.Parse("", "role", "db"),
	})
	require.NoError(t, err)

	in := client.sendInput
	assert.Nil(t, in.InstanceIds)
	require.Len(t, in.Targets, 1)
	assert.Equal(t, "tag:role", aws.ToString(in.Targets[0].Key))
	assert.Nil(t, in.Comment)
	assert.Nil(t, in.TimeoutSeconds)
	assert.Nil(t, in.MaxConcurrency)
	assert.Nil(t, in.MaxErrors)
}

func TestSubmitErrors(t *testing.T) {
	req := dispatch.Request{Command: "uptime", Document: "AWS-RunShellScript", Targets: target.Parse("i-1", "", "")}

	t.Run("access denied", func(t *testing.T) {
		client := &fakeSSM{err: &smithy.GenericAPIError{Code: "AccessDeniedException"}}
		_, err := NewCommandRunner(client).Submit(context.Background(), req)
		assert.ErrorIs(t, err, apierror.ErrNotAuthorized)
	})

	t.Run("invalid document", func(t *testing.T) {
		client := &fakeSSM{err: &smithy.GenericAPIError{Code: "InvalidDocument", Message: "not found"}}
		_, err := NewCommandRunner(client).Submit(context.Background(), req)
		assert.NotErrorIs(t, err, apierror.ErrNotAuthorized)
		assert.EqualError(t, err, "SendCommand: InvalidDocument: not found")
	})

	t.Run("no command id", func(t *testing.T) {
		client := &fakeSSM{sendOutput: &ssm.SendCommandOutput{}}
		_, err := NewCommandRunner(client).Submit(context.Background(), req)
		assert.Error(t, err)
	})
}

func TestCountComplete(t *testing.T) {
	client := &fakeSSM{}
	runner := NewCommandRunner(client)

	count, err := runner.CountComplete(context.Background(), "cmd-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	client.commands = []types.Command{{CommandId: aws.String("cmd-1")}}
	count, err = runner.CountComplete(context.Background(), "cmd-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	in := client.listInputs[0]
	assert.Equal(t, "cmd-1", aws.ToString(in.CommandId))
	require.Len(t, in.Filters, 1)
	assert.Equal(t, types.CommandFilterKeyExecutionStage, in.Filters[0].Key)
	assert.Equal(t, "Complete", aws.ToString(in.Filters[0].Value))
}

func TestListInvocations(t *testing.T) {
	client := &fakeSSM{
		invocationPages: map[string]*ssm.ListCommandInvocationsOutput{
			"": {
				CommandInvocations: []types.CommandInvocation{
					{
						InstanceId:   aws.String("i-1"),
						InstanceName: aws.String("web-1"),
						Status:       types.CommandInvocationStatusFailed,
						CommandPlugins: []types.CommandPlugin{
							{
								Name:         aws.String("aws:runShellScript"),
								Output:       aws.String("boom\n"),
								ResponseCode: 1,
								Status:       types.CommandPluginStatusFailed,
							},
						},
					},
				},
				NextToken: aws.String("next"),
			},
			"next": {
				CommandInvocations: []types.CommandInvocation{
					{InstanceId: aws.String("i-2"), Status: types.CommandInvocationStatusSuccess, StatusDetails: aws.String("Success")},
				},
			},
		},
	}
	runner := NewCommandRunner(client)

	page, err := runner.ListInvocations(context.Background(), "cmd-1", "")
	require.NoError(t, err)

	expected := aggregate.InvocationPage{
		Invocations: []aggregate.Invocation{
			{
				InstanceID:   "i-1",
				InstanceName: "web-1",
				Status:       "Failed",
				Units: []aggregate.UnitResult{
					{Name: "aws:runShellScript", Output: "boom\n", ResponseCode: 1, Status: "Failed"},
				},
			},
		},
		NextToken: "next",
	}
	if diff := cmp.Diff(page, expected); diff != "" {
		t.Errorf("Mismatch (-got +want):\n%s", diff)
	}

	in := client.invocationInputs[0]
	assert.True(t, in.Details)
	assert.Nil(t, in.NextToken)
	assert.Equal(t, int32(50), aws.ToInt32(in.MaxResults))

	page, err = runner.ListInvocations(context.Background(), "cmd-1", "next")
	require.NoError(t, err)
	assert.Equal(t, "", page.NextToken)
	assert.Equal(t, "next", aws.ToString(client.invocationInputs[1].NextToken))
	require.Len(t, page.Invocations, 1)
	assert.Equal(t, "Success", page.Invocations[0].StatusDetails)
	assert.Empty(t, page.Invocations[0].Units)
}

func TestAggregatorWithCommandRunner(t *testing.T) {
	client := &fakeSSM{
		commands: []types.Command{{CommandId: aws.String("cmd-1")}},
		invocationPages: map[string]*ssm.ListCommandInvocationsOutput{
			"": {CommandInvocations: []types.CommandInvocation{
				{InstanceId: aws.String("i-1"), CommandPlugins: []types.CommandPlugin{{Output: aws.String("hello"), ResponseCode: 0}}},
				{InstanceId: aws.String("i-2"), CommandPlugins: []types.CommandPlugin{{Output: aws.String("hello"), ResponseCode: 0}}},
			}},
		},
	}

	outcome, err := aggregate.New(NewCommandRunner(client)).AwaitAndReport(context.Background(), "cmd-1")
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Len(t, outcome.Invocations, 2)
	assert.Len(t, client.invocationInputs, 1)
}

func TestStatusErrors(t *testing.T) {
	client := &fakeSSM{err: &smithy.GenericAPIError{Code: "ExpiredTokenException"}}
	runner := NewCommandRunner(client)

	_, err := runner.CountComplete(context.Background(), "cmd-1")
	assert.ErrorIs(t, err, apierror.ErrNotAuthorized)

	_, err = runner.ListInvocations(context.Background(), "cmd-1", "")
	assert.ErrorIs(t, err, apierror.ErrNotAuthorized)

	client.err = &smithy.GenericAPIError{Code: "InvalidCommandId", Message: "unknown"}
	_, err = runner.CountComplete(context.Background(), "cmd-1")
	assert.EqualError(t, err, "ListCommands: InvalidCommandId: unknown")
}
