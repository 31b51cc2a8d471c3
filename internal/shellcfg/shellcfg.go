// Package shellcfg writes configuration lines into shell startup files with
// append-if-absent semantics: a line is added only when no identical line is
// already present, so repeated bootstrap runs never duplicate configuration.
//
// Writes are not guarded against concurrent processes. The bootstrap is a
// single interactive run per machine; that limitation is accepted.
package shellcfg

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/pkg/fileutil"
)

// AppendOnce ensures file exists and contains line exactly once as a full
// line. It reports whether the line was written. Calling it again with the
// same arguments leaves the file unchanged.
func AppendOnce(path, line string) (bool, error) {
	present, err := ContainsLine(path, line)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrap(err, "creating parent directory")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	prefix, err := newlinePrefix(path)
	if err != nil {
		return false, err
	}

	if _, err := f.WriteString(prefix + line + "\n"); err != nil {
		return false, errors.Wrapf(err, "appending to %s", path)
	}
	return true, nil
}

// ContainsLine reports whether path contains line as an exact full-line
// match. A missing file contains nothing.
func ContainsLine(path, line string) (bool, error) {
	lines, err := fileutil.ReadLines(path)
	if err != nil {
		return false, errors.Wrapf(err, "reading %s", path)
	}
	for _, l := range lines {
		if l == line {
			return true, nil
		}
	}
	return false, nil
}

// newlinePrefix returns "\n" when the file ends mid-line, so an append
// starts on a fresh line instead of gluing onto existing content.
func newlinePrefix(path string) (string, error) {
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return "", nil
	}
	return "\n", nil
}

// Snippet is a named block of startup-file lines for one tool.
type Snippet struct {
	// Comment is a marker line written above the block, e.g. "# rbenv".
	Comment string

	// Lines are the configuration lines, each registered independently.
	Lines []string
}

// EnsureSnippet registers every line of the snippet via AppendOnce, the
// comment first. Because each line carries its own presence check, a block
// that was partially written by an interrupted run is completed rather than
// duplicated. Reports whether anything was written.
func EnsureSnippet(path string, s Snippet) (bool, error) {
	wrote := false

	if s.Comment != "" {
		w, err := AppendOnce(path, s.Comment)
		if err != nil {
			return wrote, err
		}
		wrote = wrote || w
	}

	for _, line := range s.Lines {
		w, err := AppendOnce(path, line)
		if err != nil {
			return wrote, err
		}
		wrote = wrote || w
	}
	return wrote, nil
}
