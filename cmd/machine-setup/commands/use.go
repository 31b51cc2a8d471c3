package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/fetch"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/logging"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/manager"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/paths"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/pkgmgr"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/platform"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/state"
)

func init() {
	rootCmd.AddCommand(useCmd)
}

var useCmd = &cobra.Command{
	Use:   "use <manager> [version]",
	Short: "Set a manager's default version",
	Long: `Set the default runtime version for one of the version managers.

With a version argument it is set directly. Without one, an interactive
picker opens over the versions that manager has installed (requires a
terminal).`,
	Example: `  # Pick interactively from installed Ruby versions
  machine-setup use rbenv

  # Set directly
  machine-setup use rbenv 3.4.5
  machine-setup use sdkman 21.0.8-tem
  machine-setup use nvm lts/*`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUse,
}

func runUse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	name := strings.ToLower(args[0])
	if !paths.ValidManager(name) {
		return errors.Wrapf(setuperrors.ErrUnknownManager,
			"%s (valid: %s)", name, strings.Join(paths.Managers(), ", "))
	}

	cfg, err := loadConfig()
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

	mgrs := buildManagers([]string{name}, runner, env, log, home, cfg, osTag,
		pkgmgr.New(runner, log), fetch.NewClient())
	m := mgrs[0]

	if !m.IsInstalled() {
		return errors.Newf("%s is not installed; run machine-setup bootstrap first", name)
	}
	if err := m.Activate(ctx); err != nil {
		return err
	}

	version := ""
	if len(args) == 2 {
		version = args[1]
	} else {
		version, err = pickVersion(ctx, m)
		if err != nil {
			return err
		}
	}

	if err := m.SetDefaultVersion(ctx, version); err != nil {
		return err
	}

	recordDefault(log, name, version)
	fmt.Fprintf(cmd.OutOrStdout(), "%s default set to %s\n", name, version)
	return nil
}

// pickVersion opens the fuzzy picker over the manager's installed versions.
func pickVersion(ctx context.Context, m manager.Manager) (string, error) {
	if !isTerminal() {
		return "", errors.Newf("no terminal; run: machine-setup use %s <version>", m.Name())
	}

	versions, err := m.InstalledVersions(ctx)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", errors.Wrap(setuperrors.ErrNoVersions, m.Name())
	}

	idx, err := fuzzyfinder.Find(
		versions,
		func(i int) string { return versions[i] },
		fuzzyfinder.WithHeader(fmt.Sprintf("select the default %s version", m.Name())),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", errors.New("selection aborted")
		}
		return "", errors.Wrap(err, "running version picker")
	}
	return versions[idx], nil
}

// recordDefault updates the state file so status reflects the change. Best
// effort: the state file is advisory.
func recordDefault(log *slog.Logger, name, version string) {
	path := paths.StateFile()
	st, err := state.Load(path)
	if err != nil {
		log.Warn("state file unreadable, not recording default", "error", err)
		return
	}
	ms := st.Managers[name]
	ms.Default = version
	st.Record(name, ms)
	if err := st.Save(path); err != nil {
		log.Warn("writing state file failed", "error", err)
	}
}

// isTerminal reports whether the picker can run.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
