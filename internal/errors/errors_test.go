package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitErrorMessage(t *testing.T) {
	e := NewExitError(errors.New("boom"), ExitFatal)
	if e.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", e.Error(), "boom")
	}

	empty := NewExitError(nil, ExitSystem)
	if empty.Error() != "exit code 2" {
		t.Errorf("Error() = %q, want %q", empty.Error(), "exit code 2")
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	base := ErrManagerNotCallable
	e := NewFatalError(fmt.Errorf("rbenv: %w", base), "check ~/.rbenv/bin")

	if !errors.Is(e, ErrManagerNotCallable) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
	if e.Suggestion != "check ~/.rbenv/bin" {
		t.Errorf("Suggestion = %q", e.Suggestion)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFatal},
		{"fatal", NewFatalError(errors.New("boom"), ""), ExitFatal},
		{"system", NewSystemError(errors.New("boom"), ""), ExitSystem},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewSystemError(errors.New("boom"), "")), ExitSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
