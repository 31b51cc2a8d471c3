package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
)

func TestIsRepo(t *testing.T) {
	dir := t.TempDir()
	if IsRepo(dir) {
		t.Error("plain directory reported as repo")
	}

	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !IsRepo(dir) {
		t.Error("directory with .git not reported as repo")
	}
}

func TestCloneOrPullClonesWhenAbsent(t *testing.T) {
	f := execx.NewFake()
	dest := filepath.Join(t.TempDir(), "rbenv")

	err := CloneOrPull(t.Context(), f, envctx.New(), "https://github.com/rbenv/rbenv.git", dest)
	if err != nil {
		t.Fatalf("CloneOrPull: %v", err)
	}
	if !f.Ran("clone https://github.com/rbenv/rbenv.git") {
		t.Errorf("expected a clone, got %v", f.CommandLines())
	}
}

func TestCloneOrPullFastForwardsExistingRepo(t *testing.T) {
	f := execx.NewFake()
	dest := t.TempDir()
	if err := os.Mkdir(filepath.Join(dest, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := CloneOrPull(t.Context(), f, envctx.New(), "https://github.com/rbenv/rbenv.git", dest)
	if err != nil {
		t.Fatalf("CloneOrPull: %v", err)
	}
	if !f.Ran("pull --ff-only") {
		t.Errorf("expected ff-only pull, got %v", f.CommandLines())
	}
	if f.Ran("clone") {
		t.Errorf("existing repo must not be re-cloned: %v", f.CommandLines())
	}
}

func TestCloneOrPullRejectsNonRepoDir(t *testing.T) {
	f := execx.NewFake()
	dest := t.TempDir() // exists, no .git

	err := CloneOrPull(t.Context(), f, envctx.New(), "https://github.com/rbenv/rbenv.git", dest)
	if err == nil {
		t.Fatal("expected error for non-repo directory")
	}
	if len(f.Calls) != 0 {
		t.Errorf("no git command should run: %v", f.CommandLines())
	}
}
