// Package pkgmgr ensures the platform's package manager and compiler
// toolchain exist and installs the system packages the language runtimes
// build against. Homebrew, apt, and the Xcode command line tools are
// treated as opaque external installers.
package pkgmgr

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/fetch"
)

// HomebrewInstallURL is the upstream Homebrew bootstrap script.
const HomebrewInstallURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

// brewPrefixes are the standard Homebrew locations, Apple Silicon first.
var brewPrefixes = []string{"/opt/homebrew", "/usr/local"}

// Installer drives the platform package installer.
type Installer struct {
	Runner  execx.Runner
	Fetcher *fetch.Client
	Log     *slog.Logger

	// PollInterval and MaxPolls bound the wait for the Xcode command line
	// tools installer, which runs asynchronously after being triggered.
	PollInterval time.Duration
	MaxPolls     int
}

// New returns an Installer with production defaults.
func New(runner execx.Runner, log *slog.Logger) *Installer {
	return &Installer{
		Runner:       runner,
		Fetcher:      fetch.NewClient(),
		Log:          log,
		PollInterval: 5 * time.Second,
		MaxPolls:     60,
	}
}

// HasCommandLineTools reports whether the Xcode command line tools are
// installed, judged by xcode-select resolving a developer directory.
func (i *Installer) HasCommandLineTools(ctx context.Context, env *envctx.Env) bool {
	_, err := i.Runner.Output(ctx, env, "xcode-select", "-p")
	return err == nil
}

// EnsureCommandLineTools triggers the command line tools installer and
// waits for it with bounded polling. The trigger is best-effort (it fails
// when the tools are already present) and the wait is a timeout, not a
// failure: the external installer may legitimately be slow, so after the
// cap the bootstrap proceeds and lets the compiler-dependent steps surface
// any real problem.
func (i *Installer) EnsureCommandLineTools(ctx context.Context, env *envctx.Env) error {
	if i.HasCommandLineTools(ctx, env) {
		return nil
	}

	if err := i.Runner.Run(ctx, env, "xcode-select", "--install"); err != nil {
		i.Log.Debug("xcode-select --install trigger failed", "error", err)
	}

	i.Log.Info("waiting for command line tools installer to finish")
	for n := 0; n < i.MaxPolls; n++ {
		if i.HasCommandLineTools(ctx, env) {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "waiting for command line tools")
		case <-time.After(i.PollInterval):
		}
	}

	i.Log.Warn("command line tools still not detected, proceeding anyway")
	return nil
}

// EnsureHomebrew installs Homebrew when brew is not callable, then merges
// `brew shellenv` output into the environment context so the rest of the
// run can invoke brew. Install failures propagate.
func (i *Installer) EnsureHomebrew(ctx context.Context, env *envctx.Env) error {
	if _, err := i.Runner.LookPath(env, "brew"); err != nil {
		i.Log.Info("installing homebrew")
		script, cleanup, err := i.Fetcher.Script(ctx, HomebrewInstallURL)
		if err != nil {
			return errors.Wrap(err, "fetching homebrew installer")
		}
		defer cleanup()

		installEnv := env.Clone()
		installEnv.Set("NONINTERACTIVE", "1")
		if err := i.Runner.Run(ctx, installEnv, "bash", script); err != nil {
			return errors.Wrap(err, "running homebrew installer")
		}

		// A fresh install is not on PATH yet; add the standard prefixes so
		// shellenv below resolves.
		for _, prefix := range brewPrefixes {
			env.PrependPath(prefix + "/bin")
		}
	}

	out, err := i.Runner.Output(ctx, env, "brew", "shellenv")
	if err != nil {
		return errors.Wrap(err, "reading brew shellenv")
	}
	env.Merge(ParseShellEnv(out))
	return nil
}

// InstallBrewPackages installs the given formulae in one brew invocation.
func (i *Installer) InstallBrewPackages(ctx context.Context, env *envctx.Env, pkgs []string) error {
	if len(pkgs) == 0 {
		return nil
	}
	args := append([]string{"install"}, pkgs...)
	if err := i.Runner.Run(ctx, env, "brew", args...); err != nil {
		return errors.Wrap(err, "brew install")
	}
	return nil
}

// InstallAptPackages refreshes the apt index and installs the given
// packages, assuming sudo is available.
func (i *Installer) InstallAptPackages(ctx context.Context, env *envctx.Env, pkgs []string) error {
	if len(pkgs) == 0 {
		return nil
	}
	if err := i.Runner.Run(ctx, env, "sudo", "apt-get", "update"); err != nil {
		return errors.Wrap(err, "apt-get update")
	}
	args := append([]string{"apt-get", "install", "-y"}, pkgs...)
	if err := i.Runner.Run(ctx, env, "sudo", args...); err != nil {
		return errors.Wrap(err, "apt-get install")
	}
	return nil
}

// BrewPrefix returns `brew --prefix <formula>`, used to point the Ruby
// build at keg-only libraries.
func (i *Installer) BrewPrefix(ctx context.Context, env *envctx.Env, formula string) (string, error) {
	out, err := i.Runner.Output(ctx, env, "brew", "--prefix", formula)
	if err != nil {
		return "", errors.Wrapf(err, "brew --prefix %s", formula)
	}
	return out, nil
}
