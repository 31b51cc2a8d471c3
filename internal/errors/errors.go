package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned to the operating system.
const (
	// ExitSuccess indicates the run completed without errors.
	ExitSuccess = 0

	// ExitFatal indicates a fatal provisioning failure, most commonly a
	// version manager that was installed but whose command never became
	// callable.
	ExitFatal = 1

	// ExitSystem indicates a system-related error (I/O, network, permissions).
	ExitSystem = 2
)

// Sentinel errors for common failure conditions.
var (
	// ErrUnsupportedPlatform indicates the host OS is not mac or linux.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrManagerNotCallable indicates a version manager's activation script
	// was loaded but its primary command could not be resolved.
	ErrManagerNotCallable = errors.New("version manager command not callable")

	// ErrUnknownManager indicates a manager name outside rbenv/sdkman/nvm.
	ErrUnknownManager = errors.New("unknown version manager")

	// ErrNoVersions indicates a manager has no runtime versions installed.
	ErrNoVersions = errors.New("no versions installed")
)

// ExitError wraps an error with an exit code and an optional remediation
// suggestion. It implements the error interface and supports unwrapping.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable hint for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewFatalError creates an ExitError with ExitFatal code and a suggestion.
// This is the abort path for sanity-check failures: the run must stop and
// the user needs a pointer at the broken init script.
func NewFatalError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitFatal,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// Error returns the message of the underlying error, or a generic message
// naming the exit code when Err is nil.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit code from err. A nil error maps to ExitSuccess,
// an ExitError anywhere in the chain contributes its code, and any other
// error maps to ExitFatal.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFatal
}
