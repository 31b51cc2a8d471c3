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
	"github.com/danbriechle/One-Step-Machine-Setup/internal/git"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/pkgmgr"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/platform"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/shellcfg"
)

// Upstream repositories for rbenv and its plugins.
const (
	rbenvRepo       = "https://github.com/rbenv/rbenv.git"
	rubyBuildRepo   = "https://github.com/rbenv/ruby-build.git"
	defaultGemsRepo = "https://github.com/rbenv/rbenv-default-gems.git"
)

// rubyBuildLibs are the keg-only Homebrew libraries the Ruby build links
// against on mac.
var rubyBuildLibs = []string{"openssl@3", "readline", "libyaml", "gmp"}

// Rbenv manages Ruby versions via a git checkout of rbenv plus the
// ruby-build and rbenv-default-gems plugins.
type Rbenv struct {
	runner   execx.Runner
	env      *envctx.Env
	log      *slog.Logger
	cfg      config.RubyConfig
	platform platform.OS
	pkg      *pkgmgr.Installer
	home     string
}

var _ Manager = (*Rbenv)(nil)

// NewRbenv constructs the rbenv manager. pkg may be nil off mac; it is only
// consulted for Homebrew library prefixes.
func NewRbenv(runner execx.Runner, env *envctx.Env, log *slog.Logger, home string,
	cfg config.RubyConfig, os platform.OS, pkg *pkgmgr.Installer) *Rbenv {
	return &Rbenv{
		runner:   runner,
		env:      env,
		log:      log.With("manager", "rbenv"),
		cfg:      cfg,
		platform: os,
		pkg:      pkg,
		home:     home,
	}
}

func (r *Rbenv) Name() string { return "rbenv" }

// Home honors RBENV_ROOT when set, matching rbenv itself.
func (r *Rbenv) Home() string {
	if root := r.env.Get("RBENV_ROOT"); root != "" {
		return root
	}
	return filepath.Join(r.home, ".rbenv")
}

func (r *Rbenv) IsInstalled() bool {
	info, err := os.Stat(r.Home())
	return err == nil && info.IsDir()
}

// Ensure clones rbenv and its plugins, fast-forwarding checkouts that
// already exist. It also registers the configured default gems so every
// future Ruby install gets them.
func (r *Rbenv) Ensure(ctx context.Context) error {
	root := r.Home()

	if err := git.CloneOrPull(ctx, r.runner, r.env, rbenvRepo, root); err != nil {
		return err
	}

	plugins := filepath.Join(root, "plugins")
	if err := os.MkdirAll(plugins, 0o755); err != nil {
		return errors.Wrap(err, "creating plugins directory")
	}
	if err := git.CloneOrPull(ctx, r.runner, r.env, rubyBuildRepo, filepath.Join(plugins, "ruby-build")); err != nil {
		return err
	}
	if err := git.CloneOrPull(ctx, r.runner, r.env, defaultGemsRepo, filepath.Join(plugins, "rbenv-default-gems")); err != nil {
		return err
	}

	gemsFile := filepath.Join(root, "default-gems")
	for _, gem := range r.cfg.DefaultGems {
		if _, err := shellcfg.AppendOnce(gemsFile, gem); err != nil {
			return errors.Wrapf(err, "registering default gem %s", gem)
		}
	}
	return nil
}

func (r *Rbenv) Snippets() []shellcfg.Snippet {
	return []shellcfg.Snippet{{
		Comment: "# rbenv",
		Lines: []string{
			`export PATH="$HOME/.rbenv/bin:$PATH"`,
			`eval "$(rbenv init - zsh)"`,
		},
	}}
}

// Activate puts rbenv's bin and shims directories on the context PATH and
// verifies the rbenv command answers. rbenv is a real executable, so the
// sanity check is a direct invocation.
func (r *Rbenv) Activate(ctx context.Context) error {
	root := r.Home()
	r.env.PrependPath(filepath.Join(root, "shims"), filepath.Join(root, "bin"))

	if _, err := r.runner.Output(ctx, r.env, "rbenv", "--version"); err != nil {
		return setuperrors.NewFatalError(
			errors.Wrap(setuperrors.ErrManagerNotCallable, "rbenv"),
			"rbenv was sourced but is not callable; check "+filepath.Join(root, "bin", "rbenv"))
	}
	return nil
}

// InstallVersions builds each configured Ruby. On mac the build environment
// is pointed at Homebrew's keg-only libraries first. Individual version
// failures do not abort the remaining versions.
func (r *Rbenv) InstallVersions(ctx context.Context) []VersionResult {
	buildEnv := r.env.Clone()
	if r.platform == platform.Mac && r.pkg != nil {
		r.applyBuildFlags(ctx, buildEnv)
	}

	results := make([]VersionResult, 0, len(r.cfg.Versions))
	for _, v := range r.cfg.Versions {
		err := r.runner.Run(ctx, buildEnv, "rbenv", "install", "--skip-existing", v)
		results = append(results, VersionResult{Version: v, Err: err})
	}
	logResults(r.log, results)
	return results
}

// applyBuildFlags injects Homebrew library prefixes into the compiler and
// linker search paths so native-extension compilation succeeds. Each prefix
// lookup is best-effort: a missing formula just stays out of the flags.
func (r *Rbenv) applyBuildFlags(ctx context.Context, env *envctx.Env) {
	var ldflags, cppflags, pkgconfig []string

	for _, formula := range rubyBuildLibs {
		prefix, err := r.pkg.BrewPrefix(ctx, env, formula)
		if err != nil {
			r.log.Debug("brew prefix lookup failed", "formula", formula, "error", err)
			continue
		}
		ldflags = append(ldflags, "-L"+prefix+"/lib")
		cppflags = append(cppflags, "-I"+prefix+"/include")
		pkgconfig = append(pkgconfig, prefix+"/lib/pkgconfig")

		if formula == "openssl@3" {
			env.Set("RUBY_CONFIGURE_OPTS", "--with-openssl-dir="+prefix)
		}
	}

	if len(ldflags) > 0 {
		env.Set("LDFLAGS", strings.Join(ldflags, " "))
		env.Set("CPPFLAGS", strings.Join(cppflags, " "))
		env.Set("PKG_CONFIG_PATH", strings.Join(pkgconfig, ":"))
	}
}

func (r *Rbenv) InstalledVersions(ctx context.Context) ([]string, error) {
	out, err := r.runner.Output(ctx, r.env, "rbenv", "versions", "--bare")
	if err != nil {
		return nil, errors.Wrap(err, "listing ruby versions")
	}

	var versions []string
	for _, line := range strings.Split(out, "\n") {
		if v := strings.TrimSpace(line); v != "" {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// SelectDefault makes the newest installed Ruby the global default.
func (r *Rbenv) SelectDefault(ctx context.Context) (string, error) {
	versions, err := r.InstalledVersions(ctx)
	if err != nil {
		return "", err
	}

	newest, ok := Newest(versions)
	if !ok {
		return "", errors.Wrap(setuperrors.ErrNoVersions, "ruby")
	}

	if err := r.SetDefaultVersion(ctx, newest); err != nil {
		return "", err
	}
	return newest, nil
}

func (r *Rbenv) SetDefaultVersion(ctx context.Context, version string) error {
	if err := r.runner.Run(ctx, r.env, "rbenv", "global", version); err != nil {
		return errors.Wrapf(err, "setting ruby %s as global", version)
	}
	return nil
}
