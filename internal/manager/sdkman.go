package manager

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/config"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/fetch"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/shellcfg"
)

// SDKMANInstallURL is the upstream installer. rcupdate=false keeps the
// installer from writing shell profiles itself; registration stays with the
// idempotent config writer.
const SDKMANInstallURL = "https://get.sdkman.io?rcupdate=false"

// SDKMAN manages Java versions. Unlike rbenv, sdk is a shell function, so
// every invocation goes through a script that sources sdkman-init.sh first.
type SDKMAN struct {
	runner  execx.Runner
	env     *envctx.Env
	log     *slog.Logger
	cfg     config.JavaConfig
	fetcher *fetch.Client
	home    string
}

var _ Manager = (*SDKMAN)(nil)

// NewSDKMAN constructs the SDKMAN manager.
func NewSDKMAN(runner execx.Runner, env *envctx.Env, log *slog.Logger, home string,
	cfg config.JavaConfig, fetcher *fetch.Client) *SDKMAN {
	return &SDKMAN{
		runner:  runner,
		env:     env,
		log:     log.With("manager", "sdkman"),
		cfg:     cfg,
		fetcher: fetcher,
		home:    home,
	}
}

func (s *SDKMAN) Name() string { return "sdkman" }

// Home honors SDKMAN_DIR when set.
func (s *SDKMAN) Home() string {
	if dir := s.env.Get("SDKMAN_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(s.home, ".sdkman")
}

func (s *SDKMAN) initScript() string {
	return filepath.Join(s.Home(), "bin", "sdkman-init.sh")
}

func (s *SDKMAN) IsInstalled() bool {
	info, err := os.Stat(s.Home())
	return err == nil && info.IsDir()
}

// Ensure runs the upstream installer when the SDKMAN directory is absent.
// An existing install is left alone; SDKMAN updates itself.
func (s *SDKMAN) Ensure(ctx context.Context) error {
	if s.IsInstalled() {
		return nil
	}

	s.log.Info("installing sdkman")
	script, cleanup, err := s.fetcher.Script(ctx, SDKMANInstallURL)
	if err != nil {
		return errors.Wrap(err, "fetching sdkman installer")
	}
	defer cleanup()

	installEnv := s.env.Clone()
	installEnv.Set("SDKMAN_DIR", s.Home())
	if err := s.runner.Run(ctx, installEnv, "bash", script); err != nil {
		return errors.Wrap(err, "running sdkman installer")
	}
	return nil
}

func (s *SDKMAN) Snippets() []shellcfg.Snippet {
	return []shellcfg.Snippet{{
		Comment: "# sdkman",
		Lines: []string{
			`export SDKMAN_DIR="$HOME/.sdkman"`,
			`[[ -s "$SDKMAN_DIR/bin/sdkman-init.sh" ]] && source "$SDKMAN_DIR/bin/sdkman-init.sh"`,
		},
	}}
}

// sdkScript wraps an sdk invocation in a script that sources the init file
// under relaxed strict mode and confirms the sdk function exists.
func (s *SDKMAN) sdkScript(command string) string {
	return sourcedScript(
		[][2]string{{"SDKMAN_DIR", s.Home()}},
		s.initScript(), "sdk", command)
}

// Activate sources sdkman-init.sh and merges the resulting environment into
// the run's context. An init script that loads without defining sdk is a
// fatal error: the install is present but broken, and retrying will not fix
// it.
func (s *SDKMAN) Activate(ctx context.Context) error {
	err := mergeSourcedEnv(ctx, s.runner, s.env, s.sdkScript("env -0"))
	if err != nil {
		return setuperrors.NewFatalError(
			errors.Wrap(setuperrors.ErrManagerNotCallable, "sdk"),
			"sdk is not callable after sourcing; check "+s.initScript())
	}
	return nil
}

// InstallVersions walks the candidate identifiers grouped by major version.
// Within one major the candidates form a fallback chain: the first that
// installs wins and the rest are skipped. Failures never abort other majors.
func (s *SDKMAN) InstallVersions(ctx context.Context) []VersionResult {
	var results []VersionResult
	succeededMajor := make(map[int]bool)

	for _, id := range s.cfg.Candidates {
		major := JavaMajor(id)
		if succeededMajor[major] {
			results = append(results, VersionResult{Version: id, Skipped: true})
			continue
		}

		err := s.runner.Script(ctx, s.env, s.sdkScript("sdk install java "+id))
		results = append(results, VersionResult{Version: id, Err: err})
		if err == nil {
			succeededMajor[major] = true
		}
	}

	logResults(s.log, results)
	return results
}

func (s *SDKMAN) listJava(ctx context.Context) (string, error) {
	out, err := s.runner.ScriptOutput(ctx, s.env, s.sdkScript("sdk list java"))
	if err != nil {
		return "", errors.Wrap(err, "listing java versions")
	}
	return out, nil
}

func (s *SDKMAN) InstalledVersions(ctx context.Context) ([]string, error) {
	listing, err := s.listJava(ctx)
	if err != nil {
		return nil, err
	}
	return ParseInstalledJava(listing), nil
}

// SelectDefault scans the sdk listing for installed builds of the
// configured major version and makes the last match the default.
func (s *SDKMAN) SelectDefault(ctx context.Context) (string, error) {
	listing, err := s.listJava(ctx)
	if err != nil {
		return "", err
	}

	id, ok := SelectJavaDefault(listing, s.cfg.DefaultMajor)
	if !ok {
		return "", errors.Wrapf(setuperrors.ErrNoVersions, "java %d", s.cfg.DefaultMajor)
	}

	if err := s.SetDefaultVersion(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SDKMAN) SetDefaultVersion(ctx context.Context, version string) error {
	if err := s.runner.Script(ctx, s.env, s.sdkScript("sdk default java "+version)); err != nil {
		return errors.Wrapf(err, "setting java %s as default", version)
	}
	return nil
}

// ParseInstalledJava extracts the identifiers of installed rows from an
// `sdk list java` table. Rows are pipe-separated with the identifier in the
// last column; a row counts as installed when its status column says so.
func ParseInstalledJava(listing string) []string {
	var ids []string
	for _, line := range strings.Split(listing, "\n") {
		if id, ok := installedRowID(line); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// SelectJavaDefault returns the identifier of the last installed row
// matching the given major version. "Last match wins" mirrors the original
// selection policy and favors the newest patch in SDKMAN's sorted listing.
func SelectJavaDefault(listing string, major int) (string, bool) {
	prefix := strconv.Itoa(major) + "."
	selected := ""

	for _, line := range strings.Split(listing, "\n") {
		id, ok := installedRowID(line)
		if !ok {
			continue
		}
		if strings.HasPrefix(id, prefix) || id == strconv.Itoa(major) {
			selected = id
		}
	}
	return selected, selected != ""
}

// installedRowID extracts the identifier from a listing row when the row
// is marked installed.
func installedRowID(line string) (string, bool) {
	if !strings.Contains(line, "|") || !strings.Contains(line, "installed") {
		return "", false
	}
	cols := strings.Split(line, "|")
	id := strings.TrimSpace(cols[len(cols)-1])
	if id == "" {
		return "", false
	}
	return id, true
}

// JavaMajor extracts the leading major version from an SDKMAN identifier
// such as "21.0.8-tem". Unparsable identifiers map to 0, which groups them
// into their own fallback chain.
func JavaMajor(id string) int {
	head, _, _ := strings.Cut(id, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}
