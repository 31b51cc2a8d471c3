// Package execx runs external commands and shell scripts against an
// explicit environment context. All process execution in the bootstrap goes
// through the Runner interface so command-level behavior can be faked in
// tests.
package execx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
)

// Runner executes commands with a given environment context.
type Runner interface {
	// Run executes a command, streaming its output to the user's terminal.
	// Stdin is connected to support interactive installers.
	Run(ctx context.Context, env *envctx.Env, name string, args ...string) error

	// Output executes a command and returns its trimmed standard output.
	Output(ctx context.Context, env *envctx.Env, name string, args ...string) (string, error)

	// Script executes a bash script, streaming output.
	Script(ctx context.Context, env *envctx.Env, script string) error

	// ScriptOutput executes a bash script and returns its raw standard output.
	ScriptOutput(ctx context.Context, env *envctx.Env, script string) (string, error)

	// LookPath resolves name against the PATH of the environment context,
	// not the process environment.
	LookPath(env *envctx.Env, name string) (string, error)
}

// ErrNotFound indicates a command was not found on the context's PATH.
var ErrNotFound = errors.New("command not found")

// Exec is the Runner backed by os/exec.
type Exec struct{}

var _ Runner = (*Exec)(nil)

// New returns a Runner backed by os/exec.
func New() *Exec {
	return &Exec{}
}

func (x *Exec) command(ctx context.Context, env *envctx.Env, name string, args ...string) (*exec.Cmd, error) {
	path := name
	if !strings.Contains(name, string(os.PathSeparator)) {
		resolved, err := x.LookPath(env, name)
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = env.Environ()
	return cmd, nil
}

// Run executes a command, streaming output to the terminal.
func (x *Exec) Run(ctx context.Context, env *envctx.Env, name string, args ...string) error {
	cmd, err := x.command(ctx, env, name, args...)
	if err != nil {
		return err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "running %s", name)
	}
	return nil
}

// Output executes a command and returns its trimmed standard output.
// Standard error goes to the terminal.
func (x *Exec) Output(ctx context.Context, env *envctx.Env, name string, args ...string) (string, error) {
	cmd, err := x.command(ctx, env, name, args...)
	if err != nil {
		return "", err
	}
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, "running %s", name)
	}
	return strings.TrimSpace(string(out)), nil
}

// Script executes a bash script, streaming output.
func (x *Exec) Script(ctx context.Context, env *envctx.Env, script string) error {
	return x.Run(ctx, env, "bash", "-c", script)
}

// ScriptOutput executes a bash script and returns its raw standard output.
// The output is not trimmed: callers parsing NUL-separated records need the
// exact bytes.
func (x *Exec) ScriptOutput(ctx context.Context, env *envctx.Env, script string) (string, error) {
	cmd, err := x.command(ctx, env, "bash", "-c", script)
	if err != nil {
		return "", err
	}
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "running script")
	}
	return string(out), nil
}

// LookPath searches the context's PATH entries for an executable file.
func (x *Exec) LookPath(env *envctx.Env, name string) (string, error) {
	if strings.Contains(name, string(os.PathSeparator)) {
		if isExecutable(name) {
			return name, nil
		}
		return "", errors.Wrapf(ErrNotFound, "%s", name)
	}

	for _, dir := range env.Path() {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "%s", name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
