package manager

import (
	"reflect"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/config"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/logging"
)

func newTestNvm(t *testing.T, f *execx.Fake) (*Nvm, *envctx.Env) {
	t.Helper()
	env := envctx.New()
	env.Set("HOME", "/home/u")
	cfg := config.NodeConfig{
		Versions:     []string{"--lts", "22"},
		DefaultAlias: "lts/*",
	}
	return NewNvm(f, env, logging.ForTest(t), "/home/u", cfg, nil), env
}

func TestNvmInstallVersionsContinuesPastFailure(t *testing.T) {
	f := execx.NewFake()
	f.Errors["nvm install --lts"] = errors.New("mirror timeout")
	n, _ := newTestNvm(t, f)

	results := n.InstallVersions(t.Context())

	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Err == nil {
		t.Error("--lts should have failed")
	}
	if results[1].Err != nil {
		t.Errorf("22 must still be attempted: %v", results[1].Err)
	}
	if !f.Ran("corepack enable") {
		t.Errorf("corepack enable missing: %v", f.CommandLines())
	}
}

func TestNvmCorepackFailureTolerated(t *testing.T) {
	f := execx.NewFake()
	f.Errors["corepack enable"] = errors.New("corepack missing")
	n, _ := newTestNvm(t, f)

	results := n.InstallVersions(t.Context())
	if Failed(results) != 0 {
		t.Errorf("corepack failure must not mark versions failed: %+v", results)
	}
}

func TestNvmSelectDefault(t *testing.T) {
	f := execx.NewFake()
	n, _ := newTestNvm(t, f)

	got, err := n.SelectDefault(t.Context())
	if err != nil {
		t.Fatalf("SelectDefault: %v", err)
	}
	if got != "lts/*" {
		t.Errorf("selected %q", got)
	}
	if !f.Ran("nvm alias default 'lts/*'") {
		t.Errorf("alias not set: %v", f.CommandLines())
	}
}

func TestNvmActivateFailureIsFatal(t *testing.T) {
	f := execx.NewFake()
	f.Errors["env -0"] = errors.New("exit status 86")
	n, _ := newTestNvm(t, f)

	err := n.Activate(t.Context())
	var exitErr *setuperrors.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if !strings.Contains(exitErr.Suggestion, "nvm.sh") {
		t.Errorf("suggestion = %q", exitErr.Suggestion)
	}
}

func TestNvmScriptShape(t *testing.T) {
	f := execx.NewFake()
	n, _ := newTestNvm(t, f)

	script := n.nvmScript("nvm install 22")

	if !strings.Contains(script, `export NVM_DIR="/home/u/.nvm"`) {
		t.Errorf("missing NVM_DIR export: %s", script)
	}
	if !strings.Contains(script, "typeset -f nvm") {
		t.Error("script must verify the nvm function exists")
	}
	if !strings.Contains(script, "set +u") {
		t.Error("sourcing must be relaxed")
	}
}

func TestParseNvmVersions(t *testing.T) {
	out := `        v20.19.4
->      v22.18.0
        v24.5.0
default -> lts/* (-> v22.18.0)
node -> stable
`
	got := ParseNvmVersions(out)
	want := []string{"v20.19.4", "v22.18.0", "v24.5.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseNvmVersions = %v, want %v", got, want)
	}
}

func TestNewest(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
		ok       bool
	}{
		{"simple", []string{"3.2.9", "3.4.5", "3.3.9"}, "3.4.5", true},
		{"double digit", []string{"3.9.1", "3.10.0"}, "3.10.0", true},
		{"mixed junk", []string{"system", "3.4.5"}, "3.4.5", true},
		{"empty", nil, "", false},
		{"only junk", []string{"system"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Newest(tt.versions)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Newest(%v) = %q, %v; want %q, %v", tt.versions, got, ok, tt.want, tt.ok)
			}
		})
	}
}
