package manager

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/config"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/fetch"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/shellcfg"
)

// NvmInstallURL pins the upstream installer to a released tag.
const NvmInstallURL = "https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.3/install.sh"

// Nvm manages Node versions. Like sdk, nvm is a shell function sourced from
// nvm.sh, so invocations run through a sourcing script.
type Nvm struct {
	runner  execx.Runner
	env     *envctx.Env
	log     *slog.Logger
	cfg     config.NodeConfig
	fetcher *fetch.Client
	home    string
}

var _ Manager = (*Nvm)(nil)

// NewNvm constructs the nvm manager.
func NewNvm(runner execx.Runner, env *envctx.Env, log *slog.Logger, home string,
	cfg config.NodeConfig, fetcher *fetch.Client) *Nvm {
	return &Nvm{
		runner:  runner,
		env:     env,
		log:     log.With("manager", "nvm"),
		cfg:     cfg,
		fetcher: fetcher,
		home:    home,
	}
}

func (n *Nvm) Name() string { return "nvm" }

// Home honors NVM_DIR when set.
func (n *Nvm) Home() string {
	if dir := n.env.Get("NVM_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(n.home, ".nvm")
}

func (n *Nvm) initScript() string {
	return filepath.Join(n.Home(), "nvm.sh")
}

func (n *Nvm) IsInstalled() bool {
	info, err := os.Stat(n.Home())
	return err == nil && info.IsDir()
}

// Ensure runs the upstream installer when the nvm directory is absent.
// PROFILE=/dev/null keeps the installer out of shell startup files; the
// idempotent config writer owns those lines.
func (n *Nvm) Ensure(ctx context.Context) error {
	if n.IsInstalled() {
		return nil
	}

	n.log.Info("installing nvm")
	script, cleanup, err := n.fetcher.Script(ctx, NvmInstallURL)
	if err != nil {
		return errors.Wrap(err, "fetching nvm installer")
	}
	defer cleanup()

	installEnv := n.env.Clone()
	installEnv.Set("NVM_DIR", n.Home())
	installEnv.Set("PROFILE", "/dev/null")
	if err := n.runner.Run(ctx, installEnv, "bash", script); err != nil {
		return errors.Wrap(err, "running nvm installer")
	}
	return nil
}

func (n *Nvm) Snippets() []shellcfg.Snippet {
	return []shellcfg.Snippet{{
		Comment: "# nvm",
		Lines: []string{
			`export NVM_DIR="$HOME/.nvm"`,
			`[ -s "$NVM_DIR/nvm.sh" ] && \. "$NVM_DIR/nvm.sh"`,
			`[ -s "$NVM_DIR/bash_completion" ] && \. "$NVM_DIR/bash_completion"`,
		},
	}}
}

// nvmScript wraps an nvm invocation in a script that sources nvm.sh under
// relaxed strict mode and confirms the nvm function exists.
func (n *Nvm) nvmScript(command string) string {
	return sourcedScript(
		[][2]string{{"NVM_DIR", n.Home()}},
		n.initScript(), "nvm", command)
}

// Activate sources nvm.sh and merges the resulting environment into the
// run's context. nvm.sh loading without defining the nvm function is fatal.
func (n *Nvm) Activate(ctx context.Context) error {
	err := mergeSourcedEnv(ctx, n.runner, n.env, n.nvmScript("env -0"))
	if err != nil {
		return setuperrors.NewFatalError(
			errors.Wrap(setuperrors.ErrManagerNotCallable, "nvm"),
			"nvm is not callable after sourcing; check "+n.initScript())
	}
	return nil
}

// InstallVersions installs each configured version argument, then enables
// corepack so yarn and pnpm shims are available. Everything here is
// best-effort.
func (n *Nvm) InstallVersions(ctx context.Context) []VersionResult {
	results := make([]VersionResult, 0, len(n.cfg.Versions)+1)

	for _, v := range n.cfg.Versions {
		err := n.runner.Script(ctx, n.env, n.nvmScript("nvm install "+v))
		results = append(results, VersionResult{Version: v, Err: err})
	}

	if err := n.runner.Script(ctx, n.env, n.nvmScript("corepack enable")); err != nil {
		n.log.Debug("corepack enable failed", "error", err)
	}

	logResults(n.log, results)
	return results
}

func (n *Nvm) InstalledVersions(ctx context.Context) ([]string, error) {
	out, err := n.runner.ScriptOutput(ctx, n.env, n.nvmScript("nvm ls --no-colors --no-alias"))
	if err != nil {
		return nil, errors.Wrap(err, "listing node versions")
	}
	return ParseNvmVersions(out), nil
}

// SelectDefault points nvm's default alias at the configured target,
// normally the latest LTS line.
func (n *Nvm) SelectDefault(ctx context.Context) (string, error) {
	if err := n.SetDefaultVersion(ctx, n.cfg.DefaultAlias); err != nil {
		return "", err
	}
	return n.cfg.DefaultAlias, nil
}

func (n *Nvm) SetDefaultVersion(ctx context.Context, version string) error {
	if err := n.runner.Script(ctx, n.env, n.nvmScript("nvm alias default '"+version+"'")); err != nil {
		return errors.Wrapf(err, "setting node default alias to %s", version)
	}
	return nil
}

// ParseNvmVersions extracts version numbers from `nvm ls` output, whose
// rows mark the current version with an arrow and pad with whitespace.
func ParseNvmVersions(out string) []string {
	var versions []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "->"))
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		v := fields[0]
		if strings.HasPrefix(v, "v") && len(v) > 1 {
			versions = append(versions, v)
		}
	}
	return versions
}
