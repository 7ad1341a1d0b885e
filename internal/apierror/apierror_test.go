package apierror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		wantNil          bool
		wantUnauthorized bool
		wantCode         string
	}{
		{
			name:    "nil error",
			err:     nil,
			wantNil: true,
		},
		{
			name:             "ec2 auth failure",
			err:              &smithy.GenericAPIError{Code: "AuthFailure", Message: "AWS was not able to validate the provided access credentials"},
			wantUnauthorized: true,
			wantCode:         "AuthFailure",
		},
		{
			name:             "ssm access denied",
			err:              &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "User is not authorized to perform: ssm:SendCommand"},
			wantUnauthorized: true,
			wantCode:         "AccessDeniedException",
		},
		{
			name:             "wrapped auth failure",
			err:              fmt.Errorf("operation error: %w", &smithy.GenericAPIError{Code: "UnauthorizedOperation"}),
			wantUnauthorized: true,
			wantCode:         "UnauthorizedOperation",
		},
		{
			name:     "throttling is not an authorization failure",
			err:      &smithy.GenericAPIError{Code: "ThrottlingException", Message: "Rate exceeded"},
			wantCode: "ThrottlingException",
		},
		{
			name: "plain error",
			err:  errors.New("dial tcp: connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("DescribeInstances", tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Classify() = %v, want nil", got)
				}
				return
			}

			if errors.Is(got, ErrNotAuthorized) != tt.wantUnauthorized {
				t.Errorf("errors.Is(ErrNotAuthorized) = %v, want %v", !tt.wantUnauthorized, tt.wantUnauthorized)
			}

			if !errors.Is(got, tt.err) {
				t.Errorf("classified error does not wrap the original error")
			}

			if code := Code(got); code != tt.wantCode {
				t.Errorf("Code() = %q, want %q", code, tt.wantCode)
			}

			if !tt.wantUnauthorized {
				var apiErr *Error
				if !errors.As(got, &apiErr) {
					t.Fatalf("expected *Error, got %T", got)
				}
				if apiErr.Op != "DescribeInstances" {
					t.Errorf("Op = %q, want DescribeInstances", apiErr.Op)
				}
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Classify("SendCommand", &smithy.GenericAPIError{Code: "InvalidDocument", Message: "document does not exist"})
	want := "SendCommand: InvalidDocument: document does not exist"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = Classify("SendCommand", errors.New("boom"))
	want = "SendCommand: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
