package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/config"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/fetch"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/logging"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/manager"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/paths"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/pkgmgr"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/platform"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/report"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/shellcfg"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/state"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/step"
)

var (
	skipPackages bool
	managersFlag []string
)

func init() {
	bootstrapCmd.Flags().BoolVar(&skipPackages, "skip-packages", false,
		"skip system package installation")
	bootstrapCmd.Flags().StringSliceVar(&managersFlag, "managers", nil,
		"version managers to set up (default: rbenv,sdkman,nvm)")
	rootCmd.AddCommand(bootstrapCmd)
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Provision the machine end to end",
	Long: `Run the full bootstrap: detect the operating system, install system
packages, set up the version managers, and record the result.

Every step is idempotent. Re-running after a failure or on an already
provisioned machine only does the missing work: existing clones are
fast-forwarded, shell configuration lines are never duplicated, and
installed runtime versions are skipped.

Failure handling varies by step. Package installs and repository
operations abort the run; individual runtime version installs are
best-effort; a version manager that installs but is not callable
afterwards aborts with exit code 1 and a remediation hint.`,
	Example: `  # Provision everything
  machine-setup bootstrap

  # Version managers only, no system packages
  machine-setup bootstrap --skip-packages

  # A single manager
  machine-setup bootstrap --managers nvm`,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	selected, err := selectManagers(managersFlag)
	if err != nil {
		return err
	}

	home, err := paths.ResolveHome()
	if err != nil {
		return setuperrors.NewSystemError(err, "set HOME and re-run")
	}

	runner := execx.New()
	env := envctx.FromEnviron()

	osTag := platform.Detect(ctx, runner, env)
	log.Info("platform detected", "os", osTag)

	profile := cfg.Profile
	if profile == "" {
		profile = paths.ShellStartupFile(home)
	}

	installer := pkgmgr.New(runner, log)
	fetcher := fetch.NewClient()
	mgrs := buildManagers(selected, runner, env, log, home, cfg, osTag, installer, fetcher)

	defaults := make(map[string]string)
	steps := packageSteps(osTag, installer, cfg, profile)
	for _, m := range mgrs {
		steps = append(steps, managerSteps(m, profile, defaults)...)
	}

	tc := &step.Context{Env: env, Platform: string(osTag), Log: log}
	results, runErr := step.Run(ctx, tc, steps)

	writeState(ctx, log, string(osTag), mgrs, defaults)

	report.NewReporter(cmd.OutOrStdout()).Banner(report.Summary{
		Platform:    string(osTag),
		Defaults:    defaults,
		StartupFile: profile,
		Results:     results,
	})

	return runErr
}

// selectManagers resolves the --managers flag to known manager names in
// install order. An empty flag selects all of them.
func selectManagers(flag []string) ([]string, error) {
	if len(flag) == 0 {
		return paths.Managers(), nil
	}

	want := make(map[string]bool, len(flag))
	for _, name := range flag {
		name = strings.ToLower(strings.TrimSpace(name))
		if !paths.ValidManager(name) {
			return nil, errors.Wrapf(setuperrors.ErrUnknownManager,
				"%s (valid: %s)", name, strings.Join(paths.Managers(), ", "))
		}
		want[name] = true
	}

	var selected []string
	for _, name := range paths.Managers() {
		if want[name] {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// buildManagers constructs the selected managers against the shared runner
// and environment context.
func buildManagers(selected []string, runner execx.Runner, env *envctx.Env,
	log *slog.Logger, home string, cfg *config.Config, os platform.OS,
	installer *pkgmgr.Installer, fetcher *fetch.Client) []manager.Manager {

	mgrs := make([]manager.Manager, 0, len(selected))
	for _, name := range selected {
		switch name {
		case paths.ManagerRbenv:
			mgrs = append(mgrs, manager.NewRbenv(runner, env, log, home, cfg.Ruby, os, installer))
		case paths.ManagerSDKMAN:
			mgrs = append(mgrs, manager.NewSDKMAN(runner, env, log, home, cfg.Java, fetcher))
		case paths.ManagerNvm:
			mgrs = append(mgrs, manager.NewNvm(runner, env, log, home, cfg.Node, fetcher))
		}
	}
	return mgrs
}

// packageSteps builds the platform-gated system package steps. Unsupported
// platforms get none; the version-manager steps still run.
func packageSteps(os platform.OS, installer *pkgmgr.Installer, cfg *config.Config, profile string) []step.Step {
	var steps []step.Step

	switch os {
	case platform.Mac:
		steps = append(steps,
			step.Step{
				Name:   "command line tools",
				Policy: step.BestEffort,
				Run: func(ctx context.Context, tc *step.Context) error {
					return installer.EnsureCommandLineTools(ctx, tc.Env)
				},
			},
			step.Step{
				Name: "homebrew",
				Run: func(ctx context.Context, tc *step.Context) error {
					return installer.EnsureHomebrew(ctx, tc.Env)
				},
			},
			step.Step{
				Name: "homebrew shell config",
				Satisfied: func(tc *step.Context) bool {
					return snippetsPresent(profile, []shellcfg.Snippet{pkgmgr.ShellSnippet()})
				},
				Run: func(ctx context.Context, tc *step.Context) error {
					_, err := shellcfg.EnsureSnippet(profile, pkgmgr.ShellSnippet())
					return err
				},
			},
		)
		if !skipPackages {
			steps = append(steps, step.Step{
				Name: "brew packages",
				Run: func(ctx context.Context, tc *step.Context) error {
					return installer.InstallBrewPackages(ctx, tc.Env, cfg.Packages.Brew)
				},
			})
		}
	case platform.Linux:
		if !skipPackages {
			steps = append(steps, step.Step{
				Name: "apt packages",
				Run: func(ctx context.Context, tc *step.Context) error {
					return installer.InstallAptPackages(ctx, tc.Env, cfg.Packages.Apt)
				},
			})
		}
	}

	return steps
}

// managerSteps builds one manager's lifecycle: fetch, register shell lines,
// activate, install versions, select the default. Selected defaults are
// recorded into defaults for the state file and the banner.
func managerSteps(m manager.Manager, profile string, defaults map[string]string) []step.Step {
	name := m.Name()

	return []step.Step{
		{
			Name: name + " install",
			Run: func(ctx context.Context, tc *step.Context) error {
				return m.Ensure(ctx)
			},
		},
		{
			Name: name + " shell config",
			Satisfied: func(tc *step.Context) bool {
				return snippetsPresent(profile, m.Snippets())
			},
			Run: func(ctx context.Context, tc *step.Context) error {
				for _, s := range m.Snippets() {
					if _, err := shellcfg.EnsureSnippet(profile, s); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name:   name + " activate",
			Policy: step.Fatal,
			Run: func(ctx context.Context, tc *step.Context) error {
				return m.Activate(ctx)
			},
		},
		{
			Name:   name + " versions",
			Policy: step.BestEffort,
			Run: func(ctx context.Context, tc *step.Context) error {
				results := m.InstallVersions(ctx)
				if failed := manager.Failed(results); failed > 0 {
					return errors.Newf("%d of %d version installs failed", failed, len(results))
				}
				return nil
			},
		},
		{
			Name:   name + " default",
			Policy: step.BestEffort,
			Run: func(ctx context.Context, tc *step.Context) error {
				chosen, err := m.SelectDefault(ctx)
				if err != nil {
					return err
				}
				defaults[name] = chosen
				return nil
			},
		},
	}
}

// snippetsPresent reports whether every activation line is already in the
// profile. Read errors count as absent so the step runs and surfaces them.
func snippetsPresent(profile string, snippets []shellcfg.Snippet) bool {
	for _, s := range snippets {
		for _, line := range s.Lines {
			present, err := shellcfg.ContainsLine(profile, line)
			if err != nil || !present {
				return false
			}
		}
	}
	return true
}

// writeState records the outcome for the status command. The state file is
// advisory, so failures only warn.
func writeState(ctx context.Context, log *slog.Logger, osTag string,
	mgrs []manager.Manager, defaults map[string]string) {

	path := paths.StateFile()
	st, err := state.Load(path)
	if err != nil {
		log.Warn("discarding unreadable state file", "path", path, "error", err)
		st = state.New()
	}
	st.Platform = osTag

	for _, m := range mgrs {
		ms := state.ManagerState{
			Installed: m.IsInstalled(),
			Default:   defaults[m.Name()],
		}
		// A run that selected no new default keeps the recorded one.
		if ms.Default == "" {
			ms.Default = st.Managers[m.Name()].Default
		}
		if ms.Installed {
			if versions, err := m.InstalledVersions(ctx); err == nil {
				ms.Versions = versions
			}
		}
		st.Record(m.Name(), ms)
	}

	if err := st.Save(path); err != nil {
		log.Warn("writing state file failed", "path", path, "error", err)
	}
}
