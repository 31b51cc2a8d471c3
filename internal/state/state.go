// Package state persists what the bootstrap installed to a TOML file so the
// status command can report without re-probing every tool. The file is
// advisory: losing it is harmless because every bootstrap step re-derives
// its work from disk checks.
package state

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/danbriechle/One-Step-Machine-Setup/pkg/fileutil"
)

// ManagerState records one version manager's outcome.
type ManagerState struct {
	// Installed reports whether the manager's home directory existed after
	// the bootstrap.
	Installed bool `toml:"installed"`

	// Versions are the runtime versions present after the bootstrap.
	Versions []string `toml:"versions,omitempty"`

	// Default is the version or alias selected as the global default.
	Default string `toml:"default,omitempty"`

	// UpdatedAt is when this record was last written.
	UpdatedAt time.Time `toml:"updated_at"`
}

// State is the root of the state file.
type State struct {
	// Platform is the tag the bootstrap classified the host as.
	Platform string `toml:"platform,omitempty"`

	// Managers maps manager name to its record.
	Managers map[string]ManagerState `toml:"managers"`
}

// New returns an empty state.
func New() *State {
	return &State{Managers: make(map[string]ManagerState)}
}

// Record stores a manager's outcome, stamping the update time.
func (s *State) Record(name string, ms ManagerState) {
	ms.UpdatedAt = time.Now().UTC()
	if s.Managers == nil {
		s.Managers = make(map[string]ManagerState)
	}
	s.Managers[name] = ms
}

// Load reads the state file at path. A missing file yields an empty state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	s := New()
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if s.Managers == nil {
		s.Managers = make(map[string]ManagerState)
	}
	return s, nil
}

// Save writes the state file atomically, creating parent directories.
func (s *State) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshaling state")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating state directory")
	}
	return fileutil.AtomicWriteFile(path, data, 0o644)
}
