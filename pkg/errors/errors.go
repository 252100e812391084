// Package errors defines the error kinds shared by the analytics clients
// and the export tooling.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable covers channel creation and RPC dispatch
	// failures. Calls are not retried inside the clients.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrServerError is reported when the RPC layer itself fails, as
	// opposed to a query that matched nothing.
	ErrServerError  = errors.New("server error")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// AppError pairs one of the sentinel kinds above with a human-readable
// message describing the failing call.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExitCode maps an error to a process exit code for the dump tools.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidInput):
		return 2
	case errors.Is(err, ErrServiceUnavailable):
		return 3
	case errors.Is(err, ErrServerError):
		return 4
	case errors.Is(err, ErrNotFound):
		return 5
	default:
		return 1
	}
}
