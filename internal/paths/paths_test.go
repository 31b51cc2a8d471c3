package paths

import (
	"path/filepath"
	"testing"
)

func TestManagerHome(t *testing.T) {
	tests := []struct {
		manager string
		want    string
	}{
		{ManagerRbenv, filepath.Join("/home/u", ".rbenv")},
		{ManagerSDKMAN, filepath.Join("/home/u", ".sdkman")},
		{ManagerNvm, filepath.Join("/home/u", ".nvm")},
		{"pyenv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.manager, func(t *testing.T) {
			if got := ManagerHome("/home/u", tt.manager); got != tt.want {
				t.Errorf("ManagerHome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidManager(t *testing.T) {
	for _, name := range Managers() {
		if !ValidManager(name) {
			t.Errorf("ValidManager(%q) = false", name)
		}
	}
	if ValidManager("asdf") {
		t.Error("ValidManager(asdf) = true")
	}
}

func TestShellStartupFileHonorsZDOTDIR(t *testing.T) {
	t.Setenv("ZDOTDIR", "/custom/zdot")
	if got := ShellStartupFile("/home/u"); got != filepath.Join("/custom/zdot", ".zshrc") {
		t.Errorf("ShellStartupFile() = %q", got)
	}

	t.Setenv("ZDOTDIR", "")
	if got := ShellStartupFile("/home/u"); got != filepath.Join("/home/u", ".zshrc") {
		t.Errorf("ShellStartupFile() = %q", got)
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir, 0); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := EnsureDir(dir, 0); err != nil {
		t.Fatalf("EnsureDir second call: %v", err)
	}
}
