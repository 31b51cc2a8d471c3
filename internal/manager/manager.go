// Package manager installs and activates the three language version
// managers: rbenv for Ruby, SDKMAN for Java, and nvm for Node. Each follows
// the same lifecycle: fetch the manager if absent (fast-forward update when
// it is a git checkout), register its shell-activation lines in the startup
// file, activate it against the run's environment context, install a short
// list of runtime versions best-effort, and select a default.
package manager

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/shellcfg"
)

// Manager is the shared lifecycle of a version manager.
type Manager interface {
	// Name returns the manager identifier (rbenv, sdkman, nvm).
	Name() string

	// Home returns the manager's install directory.
	Home() string

	// IsInstalled reports whether the install directory exists.
	IsInstalled() bool

	// Ensure fetches the manager when absent. Git-based managers that are
	// already present are fast-forwarded instead; script-installed ones
	// are left alone.
	Ensure(ctx context.Context) error

	// Snippets returns the startup-file lines that activate the manager
	// in future shells.
	Snippets() []shellcfg.Snippet

	// Activate makes the manager usable in the current run by merging its
	// variables into the environment context, then verifies its primary
	// command is callable. A manager that is installed but not callable is
	// a fatal error carrying a remediation hint.
	Activate(ctx context.Context) error

	// InstallVersions installs the configured runtime versions. Each
	// version is best-effort; the results report per-version outcomes.
	InstallVersions(ctx context.Context) []VersionResult

	// InstalledVersions lists the runtime versions currently installed.
	InstalledVersions(ctx context.Context) ([]string, error)

	// SelectDefault picks the manager's default version per its policy
	// (newest Ruby, configured Java major, Node's LTS alias), sets it, and
	// returns what was chosen.
	SelectDefault(ctx context.Context) (string, error)

	// SetDefaultVersion sets an explicit version as the default.
	SetDefaultVersion(ctx context.Context, version string) error
}

// VersionResult is the outcome of one runtime version install.
type VersionResult struct {
	// Version is the version or install argument attempted.
	Version string

	// Err is nil on success.
	Err error

	// Skipped marks versions not attempted because an earlier fallback in
	// the same chain already succeeded.
	Skipped bool
}

// Failed counts the results that errored.
func Failed(results []VersionResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Distinct exit statuses for script-level failures, so an init script that
// fails to load can be told apart from a loaded script whose command never
// appeared.
const (
	initFailedStatus  = 86
	notCallableStatus = 87
)

// sourcedScript builds a bash script that exports the given variables,
// sources a manager init file with strict-mode relaxation, verifies fnName
// is defined, and then runs command. SDKMAN and nvm expose shell functions
// rather than executables, so callability means "the function exists after
// sourcing".
func sourcedScript(exports [][2]string, initFile, fnName, command string) string {
	var b strings.Builder
	b.WriteString(execx.StrictPreamble + "\n")
	for _, kv := range exports {
		b.WriteString("export " + kv[0] + "=\"" + kv[1] + "\"\n")
	}
	b.WriteString(execx.Relaxed(`\. "` + initFile + `"`))
	b.WriteString("if [ \"$" + execx.StatusVar + "\" -ne 0 ]; then exit " +
		strconv.Itoa(initFailedStatus) + "; fi\n")
	b.WriteString("if ! typeset -f " + fnName + " >/dev/null 2>&1; then exit " +
		strconv.Itoa(notCallableStatus) + "; fi\n")
	if command != "" {
		b.WriteString(command + "\n")
	}
	return b.String()
}

// scriptExitCode extracts the exit status from a script error, or -1 when
// the error does not carry one.
func scriptExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// logResults reports per-version outcomes at appropriate levels.
func logResults(log *slog.Logger, results []VersionResult) {
	for _, r := range results {
		switch {
		case r.Skipped:
			log.Debug("version skipped", "version", r.Version)
		case r.Err != nil:
			log.Warn("version install failed", "version", r.Version, "error", r.Err)
		default:
			log.Info("version installed", "version", r.Version)
		}
	}
}

// mergeSourcedEnv runs a sourced script ending in `env -0` and merges the
// captured environment into env.
func mergeSourcedEnv(ctx context.Context, runner execx.Runner, env *envctx.Env, script string) error {
	out, err := runner.ScriptOutput(ctx, env, script)
	if err != nil {
		return err
	}
	env.Merge(envctx.ParseNull(out))
	return nil
}
