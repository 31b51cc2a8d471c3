package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/paths"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/platform"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/state"
)

// PlatformCheck verifies the host kernel is one the bootstrap supports.
type PlatformCheck struct {
	runner execx.Runner
	env    *envctx.Env
}

var _ Check = (*PlatformCheck)(nil)

// NewPlatformCheck creates a new platform support check.
func NewPlatformCheck(runner execx.Runner, env *envctx.Env) *PlatformCheck {
	return &PlatformCheck{runner: runner, env: env}
}

// Name returns the unique identifier for this check.
func (c *PlatformCheck) Name() string {
	return "platform-support"
}

// Category returns the grouping for this check.
func (c *PlatformCheck) Category() string {
	return "platform"
}

// Run executes the platform support check.
func (c *PlatformCheck) Run(ctx context.Context) *CheckResult {
	detected := platform.Detect(ctx, c.runner, c.env)
	if detected == platform.Unsupported {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  "unsupported operating system",
			FixHint:  "machine-setup supports macOS and Linux only",
		}
	}
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  fmt.Sprintf("running on %s", detected),
		Details:  map[string]any{"os": string(detected)},
	}
}

// RequiredToolsCheck verifies the commands the bootstrap shells out to are
// resolvable on the run's PATH.
type RequiredToolsCheck struct {
	runner execx.Runner
	env    *envctx.Env
	tools  []string
}

var _ Check = (*RequiredToolsCheck)(nil)

// NewRequiredToolsCheck creates a check for the given command names. With no
// names it defaults to the tools every bootstrap run needs.
func NewRequiredToolsCheck(runner execx.Runner, env *envctx.Env, tools ...string) *RequiredToolsCheck {
	if len(tools) == 0 {
		tools = []string{"git", "curl", "bash"}
	}
	return &RequiredToolsCheck{runner: runner, env: env, tools: tools}
}

// Name returns the unique identifier for this check.
func (c *RequiredToolsCheck) Name() string {
	return "required-tools"
}

// Category returns the grouping for this check.
func (c *RequiredToolsCheck) Category() string {
	return "tools"
}

// Run executes the required tools check.
func (c *RequiredToolsCheck) Run(_ context.Context) *CheckResult {
	found := make(map[string]any, len(c.tools))
	var missing []string

	for _, tool := range c.tools {
		path, err := c.runner.LookPath(c.env, tool)
		if err != nil {
			missing = append(missing, tool)
			continue
		}
		found[tool] = path
	}

	if len(missing) > 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("missing required tools: %v", missing),
			Details:  found,
			FixHint:  "install the missing tools with your system package manager",
		}
	}
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  fmt.Sprintf("all %d required tools found", len(c.tools)),
		Details:  found,
	}
}

// StartupFileCheck verifies the shell startup file can be appended to.
type StartupFileCheck struct {
	path string
}

var _ Check = (*StartupFileCheck)(nil)

// NewStartupFileCheck creates a check for the given startup file path.
func NewStartupFileCheck(path string) *StartupFileCheck {
	return &StartupFileCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *StartupFileCheck) Name() string {
	return "startup-file"
}

// Category returns the grouping for this check.
func (c *StartupFileCheck) Category() string {
	return "shell"
}

// Run executes the startup file check.
func (c *StartupFileCheck) Run(_ context.Context) *CheckResult {
	info, err := os.Stat(c.path)
	if os.IsNotExist(err) {
		// Fine: the bootstrap creates the file on first run.
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityInfo,
			Message:  fmt.Sprintf("%s does not exist yet; bootstrap will create it", c.path),
		}
	}
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("cannot stat %s: %v", c.path, err),
		}
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("%s is not writable", c.path),
			Details:  map[string]any{"mode": info.Mode().String()},
			FixHint:  "chmod u+w " + c.path,
		}
	}
	f.Close()

	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  fmt.Sprintf("%s is writable", c.path),
	}
}

// managerProbes maps each manager to the file inside its home whose presence
// means the install is usable, not just an empty directory.
var managerProbes = map[string]string{
	paths.ManagerRbenv:  filepath.Join("bin", "rbenv"),
	paths.ManagerSDKMAN: filepath.Join("bin", "sdkman-init.sh"),
	paths.ManagerNvm:    "nvm.sh",
}

// ManagerCheck verifies one version manager's install directory and entry
// point. A manager that was never installed is a warning, not an error;
// doctor runs are expected before the first bootstrap.
type ManagerCheck struct {
	manager string
	home    string
}

var _ Check = (*ManagerCheck)(nil)

// NewManagerCheck creates a check for the named manager installed under home.
func NewManagerCheck(manager, home string) *ManagerCheck {
	return &ManagerCheck{manager: manager, home: home}
}

// Name returns the unique identifier for this check.
func (c *ManagerCheck) Name() string {
	return "manager-" + c.manager
}

// Category returns the grouping for this check.
func (c *ManagerCheck) Category() string {
	return "manager"
}

// Run executes the manager install check.
func (c *ManagerCheck) Run(_ context.Context) *CheckResult {
	dir := paths.ManagerHome(c.home, c.manager)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityWarning,
			Message:  fmt.Sprintf("%s is not installed", c.manager),
			FixHint:  "run machine-setup bootstrap to install it",
		}
	}

	probe := filepath.Join(dir, managerProbes[c.manager])
	if _, err := os.Stat(probe); err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("%s install at %s is missing %s", c.manager, dir, managerProbes[c.manager]),
			FixHint:  fmt.Sprintf("remove %s and run machine-setup bootstrap again", dir),
		}
	}

	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  fmt.Sprintf("%s installed at %s", c.manager, dir),
		Details:  map[string]any{"home": dir},
	}
}

// StateFileCheck verifies the recorded bootstrap state is readable.
type StateFileCheck struct {
	path string
}

var _ Check = (*StateFileCheck)(nil)

// NewStateFileCheck creates a check for the state file at path.
func NewStateFileCheck(path string) *StateFileCheck {
	return &StateFileCheck{path: path}
}

// Name returns the unique identifier for this check.
func (c *StateFileCheck) Name() string {
	return "state-file"
}

// Category returns the grouping for this check.
func (c *StateFileCheck) Category() string {
	return "state"
}

// Run executes the state file check.
func (c *StateFileCheck) Run(_ context.Context) *CheckResult {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityInfo,
			Message:  "no bootstrap has been recorded yet",
		}
	}

	st, err := state.Load(c.path)
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityWarning,
			Message:  fmt.Sprintf("state file is unreadable: %v", err),
			FixHint:  fmt.Sprintf("remove %s; the next bootstrap rewrites it", c.path),
		}
	}

	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  fmt.Sprintf("state records %d managers on %s", len(st.Managers), st.Platform),
		Details:  map[string]any{"path": c.path},
	}
}

// HomebrewCheck verifies brew is callable. Registered on macOS only.
type HomebrewCheck struct {
	runner execx.Runner
	env    *envctx.Env
}

var _ Check = (*HomebrewCheck)(nil)

// NewHomebrewCheck creates a new Homebrew availability check.
func NewHomebrewCheck(runner execx.Runner, env *envctx.Env) *HomebrewCheck {
	return &HomebrewCheck{runner: runner, env: env}
}

// Name returns the unique identifier for this check.
func (c *HomebrewCheck) Name() string {
	return "homebrew"
}

// Category returns the grouping for this check.
func (c *HomebrewCheck) Category() string {
	return "tools"
}

// Run executes the Homebrew check.
func (c *HomebrewCheck) Run(_ context.Context) *CheckResult {
	path, err := c.runner.LookPath(c.env, "brew")
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityWarning,
			Message:  "brew is not on PATH",
			FixHint:  "run machine-setup bootstrap to install Homebrew",
		}
	}
	return &CheckResult{
		Name:     c.Name(),
		Category: c.Category(),
		Status:   SeverityPass,
		Message:  "brew found at " + path,
		Details:  map[string]any{"path": path},
	}
}
