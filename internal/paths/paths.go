package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is used for config and state directory naming.
const AppName = "machine-setup"

// Version manager identifiers.
const (
	ManagerRbenv  = "rbenv"
	ManagerSDKMAN = "sdkman"
	ManagerNvm    = "nvm"
)

// managerHomes maps manager names to their install directories relative to
// the user's home directory.
var managerHomes = map[string]string{
	ManagerRbenv:  ".rbenv",
	ManagerSDKMAN: ".sdkman",
	ManagerNvm:    ".nvm",
}

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents.
// If perm is 0, DefaultDirPerm is used. Idempotent.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory, or an empty string if it cannot
// be determined. Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// Managers returns the known manager names in install order.
func Managers() []string {
	return []string{ManagerRbenv, ManagerSDKMAN, ManagerNvm}
}

// ValidManager reports whether name is a known version manager.
func ValidManager(name string) bool {
	_, ok := managerHomes[name]
	return ok
}

// ManagerHome returns the install directory for a manager under home.
// Returns an empty string for unknown managers.
func ManagerHome(home, name string) string {
	rel, ok := managerHomes[name]
	if !ok {
		return ""
	}
	return filepath.Join(home, rel)
}

// ShellStartupFile returns the zsh startup file the bootstrap writes to.
// ZDOTDIR is honored when set, matching zsh's own lookup order.
func ShellStartupFile(home string) string {
	if zdot := os.Getenv("ZDOTDIR"); zdot != "" {
		return filepath.Join(zdot, ".zshrc")
	}
	return filepath.Join(home, ".zshrc")
}

// ConfigDir returns the directory holding the machine-setup config file.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigFile returns the path of the machine-setup config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateFile returns the path of the TOML state file recording what the
// bootstrap installed.
func StateFile() string {
	return filepath.Join(xdg.StateHome, AppName, "state.toml")
}
