// Package errors defines the sentinel errors shared across the word tracker
// and maps them to process exit codes.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUsage             = errors.New("usage")
	ErrInputNotFound     = errors.New("input file not found")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrWriteFailure      = errors.New("write failed")
	ErrInvalidMode       = errors.New("invalid report mode")
	ErrInternal          = errors.New("internal error")
)

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// AppError attaches a user-facing message and exit code to a sentinel.
type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrUsage), errors.Is(err, ErrInvalidMode):
		return ExitUsage
	default:
		return ExitFailure
	}
}
