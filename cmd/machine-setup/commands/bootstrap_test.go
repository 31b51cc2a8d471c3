package commands

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/config"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/logging"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/manager"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/pkgmgr"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/platform"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/shellcfg"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/step"
)

func TestSelectManagers(t *testing.T) {
	tests := []struct {
		name    string
		flag    []string
		want    []string
		wantErr bool
	}{
		{"empty selects all in order", nil, []string{"rbenv", "sdkman", "nvm"}, false},
		{"single", []string{"nvm"}, []string{"nvm"}, false},
		{"install order preserved", []string{"nvm", "rbenv"}, []string{"rbenv", "nvm"}, false},
		{"case and spacing normalized", []string{" RBENV "}, []string{"rbenv"}, false},
		{"unknown manager", []string{"asdf"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectManagers(tt.flag)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, setuperrors.ErrUnknownManager)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildManagersOrder(t *testing.T) {
	runner := execx.NewFake()
	env := envForTest()
	log := logging.ForTest(t)
	cfg := &config.Config{}

	mgrs := buildManagers([]string{"rbenv", "sdkman", "nvm"}, runner, env, log,
		"/home/u", cfg, platform.Mac, pkgmgr.New(runner, log), nil)

	require.Len(t, mgrs, 3)
	names := []string{mgrs[0].Name(), mgrs[1].Name(), mgrs[2].Name()}
	assert.Equal(t, []string{"rbenv", "sdkman", "nvm"}, names)
	assert.Equal(t, "/home/u/.rbenv", mgrs[0].Home())
}

func TestPackageStepsPlatformGating(t *testing.T) {
	origSkip := skipPackages
	defer func() { skipPackages = origSkip }()
	skipPackages = false

	runner := execx.NewFake()
	installer := pkgmgr.New(runner, logging.ForTest(t))
	cfg := &config.Config{}

	tests := []struct {
		os   platform.OS
		want []string
	}{
		{platform.Mac, []string{"command line tools", "homebrew", "homebrew shell config", "brew packages"}},
		{platform.Linux, []string{"apt packages"}},
		{platform.Unsupported, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.os), func(t *testing.T) {
			steps := packageSteps(tt.os, installer, cfg, "/home/u/.zshrc")
			var names []string
			for _, s := range steps {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestPackageStepsSkipPackages(t *testing.T) {
	origSkip := skipPackages
	defer func() { skipPackages = origSkip }()
	skipPackages = true

	runner := execx.NewFake()
	installer := pkgmgr.New(runner, logging.ForTest(t))

	steps := packageSteps(platform.Mac, installer, &config.Config{}, "/home/u/.zshrc")
	for _, s := range steps {
		if s.Name == "brew packages" {
			t.Error("--skip-packages must drop the package step")
		}
	}

	if len(packageSteps(platform.Linux, installer, &config.Config{}, "/home/u/.zshrc")) != 0 {
		t.Error("--skip-packages on linux should leave no package steps")
	}
}

// fakeManager is a minimal manager.Manager for step wiring tests.
type fakeManager struct {
	name      string
	installed bool
	snippets  []shellcfg.Snippet
	defaultV  string

	ensured   bool
	activated bool
	installs  []manager.VersionResult
}

var _ manager.Manager = (*fakeManager)(nil)

func (f *fakeManager) Name() string      { return f.name }
func (f *fakeManager) Home() string      { return "/home/u/." + f.name }
func (f *fakeManager) IsInstalled() bool { return f.installed }

func (f *fakeManager) Ensure(context.Context) error {
	f.ensured = true
	return nil
}
func (f *fakeManager) Snippets() []shellcfg.Snippet { return f.snippets }

func (f *fakeManager) Activate(context.Context) error {
	f.activated = true
	return nil
}
func (f *fakeManager) InstallVersions(context.Context) []manager.VersionResult {
	return f.installs
}
func (f *fakeManager) InstalledVersions(context.Context) ([]string, error) {
	return nil, nil
}
func (f *fakeManager) SelectDefault(context.Context) (string, error) {
	return f.defaultV, nil
}
func (f *fakeManager) SetDefaultVersion(context.Context, string) error { return nil }

func TestManagerStepsLifecycle(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".zshrc")
	fm := &fakeManager{
		name:     "rbenv",
		defaultV: "3.4.5",
		snippets: []shellcfg.Snippet{
			{Comment: "# rbenv", Lines: []string{`eval "$(rbenv init - zsh)"`}},
		},
	}

	defaults := make(map[string]string)
	steps := managerSteps(fm, profile, defaults)

	var names []string
	for _, s := range steps {
		names = append(names, s.Name)
	}
	require.True(t, reflect.DeepEqual(names, []string{
		"rbenv install", "rbenv shell config", "rbenv activate",
		"rbenv versions", "rbenv default",
	}), "step names = %v", names)

	assert.Equal(t, step.Fatal, steps[2].Policy)
	assert.Equal(t, step.BestEffort, steps[3].Policy)
	assert.Equal(t, step.BestEffort, steps[4].Policy)

	tc := &step.Context{Env: envForTest(), Platform: "mac", Log: logging.ForTest(t)}
	results, err := step.Run(t.Context(), tc, steps)
	require.NoError(t, err)

	assert.True(t, fm.ensured)
	assert.True(t, fm.activated)
	assert.Equal(t, "3.4.5", defaults["rbenv"])

	for _, r := range results {
		assert.Equal(t, step.StatusOK, r.Status, r.Name)
	}

	data, err := os.ReadFile(profile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `eval "$(rbenv init - zsh)"`)

	// Second run: the shell config step is satisfied and skipped.
	results, err = step.Run(t.Context(), tc, managerSteps(fm, profile, defaults))
	require.NoError(t, err)
	assert.Equal(t, step.StatusSkipped, results[1].Status)

	again, err := os.ReadFile(profile)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "profile must not grow on re-run")
}

func TestSnippetsPresent(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".zshrc")
	snippets := []shellcfg.Snippet{
		{Lines: []string{"line one", "line two"}},
	}

	assert.False(t, snippetsPresent(profile, snippets), "missing file")

	require.NoError(t, os.WriteFile(profile, []byte("line one\n"), 0o644))
	assert.False(t, snippetsPresent(profile, snippets), "partial snippet")

	require.NoError(t, os.WriteFile(profile, []byte("line one\nline two\n"), 0o644))
	assert.True(t, snippetsPresent(profile, snippets))
}
