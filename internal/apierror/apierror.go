// Package apierror classifies errors returned by the cloud APIs.
//
// Authorization failures are reported as ErrNotAuthorized so that callers can
// fail fast on them, every other API failure is kept as an *Error carrying the
// operation and the error code returned by the backend.
package apierror

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aws/smithy-go"
)

var ErrNotAuthorized = errors.New("not authorized")

// authorizationCodes are the backend error codes meaning the caller identity
// was rejected, whatever the service.
var authorizationCodes = []string{
	"AuthFailure",
	"UnauthorizedOperation",
	"AccessDenied",
	"AccessDeniedException",
	"UnrecognizedClientException",
	"InvalidClientTokenId",
	"ExpiredToken",
	"ExpiredTokenException",
}

// Error is a non-authorization failure of a backend call.
type Error struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotAuthorizedError keeps the backend details of an authorization failure
// while matching ErrNotAuthorized with errors.Is.
type NotAuthorizedError struct {
	Op   string
	Code string
	Err  error
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Op, ErrNotAuthorized, e.Code)
}

func (e *NotAuthorizedError) Is(target error) bool {
	return target == ErrNotAuthorized
}

func (e *NotAuthorizedError) Unwrap() error {
	return e.Err
}

// Classify wraps err, returned by the operation op, into the error taxonomy.
//
// A nil err returns nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return &Error{Op: op, Err: err}
	}

	if IsAuthorizationCode(apiErr.ErrorCode()) {
		return &NotAuthorizedError{Op: op, Code: apiErr.ErrorCode(), Err: err}
	}

	return &Error{
		Op:      op,
		Code:    apiErr.ErrorCode(),
		Message: apiErr.ErrorMessage(),
		Err:     err,
	}
}

func IsAuthorizationCode(code string) bool {
	return slices.Contains(authorizationCodes, code)
}

// Code returns the backend error code of err, or an empty string.
func Code(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
