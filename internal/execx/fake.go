package execx

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
)

// Call records one invocation against a Fake runner.
type Call struct {
	// Name is the command name, or "bash" for scripts.
	Name string
	// Args are the command arguments; for scripts, ["-c", script].
	Args []string
}

// Fake is an in-memory Runner for tests. Responses are matched by substring
// against the joined command line, first match wins.
type Fake struct {
	// Calls records every invocation in order.
	Calls []Call

	// Outputs maps a command-line substring to the output returned for it.
	Outputs map[string]string

	// Errors maps a command-line substring to the error returned for it.
	Errors map[string]error

	// Commands lists names LookPath resolves; empty means resolve everything.
	Commands []string
}

var _ Runner = (*Fake)(nil)

// NewFake returns an empty fake runner that succeeds on every call.
func NewFake() *Fake {
	return &Fake{
		Outputs: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

// CommandLines renders recorded calls as joined strings for assertions.
func (f *Fake) CommandLines() []string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return lines
}

// Ran reports whether any recorded command line contains substr.
func (f *Fake) Ran(substr string) bool {
	for _, line := range f.CommandLines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func (f *Fake) record(name string, args ...string) (string, error) {
	f.Calls = append(f.Calls, Call{Name: name, Args: args})
	line := strings.Join(append([]string{name}, args...), " ")

	for substr, err := range f.Errors {
		if strings.Contains(line, substr) {
			return "", err
		}
	}
	for substr, out := range f.Outputs {
		if strings.Contains(line, substr) {
			return out, nil
		}
	}
	return "", nil
}

func (f *Fake) Run(_ context.Context, _ *envctx.Env, name string, args ...string) error {
	_, err := f.record(name, args...)
	return err
}

func (f *Fake) Output(_ context.Context, _ *envctx.Env, name string, args ...string) (string, error) {
	out, err := f.record(name, args...)
	return strings.TrimSpace(out), err
}

func (f *Fake) Script(_ context.Context, _ *envctx.Env, script string) error {
	_, err := f.record("bash", "-c", script)
	return err
}

func (f *Fake) ScriptOutput(_ context.Context, _ *envctx.Env, script string) (string, error) {
	return f.record("bash", "-c", script)
}

func (f *Fake) LookPath(_ *envctx.Env, name string) (string, error) {
	if len(f.Commands) == 0 {
		return "/fake/bin/" + name, nil
	}
	for _, c := range f.Commands {
		if c == name {
			return "/fake/bin/" + name, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "%s", name)
}
