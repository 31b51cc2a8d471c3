package platform

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		kernel string
		want   OS
	}{
		{"Darwin", Mac},
		{"Darwin\n", Mac},
		{"Linux", Linux},
		{"FreeBSD", Unsupported},
		{"WindowsNT", Unsupported},
		{"", Unsupported},
	}

	for _, tt := range tests {
		if got := Classify(tt.kernel); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.kernel, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	f := execx.NewFake()
	f.Outputs["uname -s"] = "Darwin\n"

	if got := Detect(t.Context(), f, envctx.New()); got != Mac {
		t.Errorf("Detect() = %q, want mac", got)
	}
}

func TestDetectProbeFailure(t *testing.T) {
	f := execx.NewFake()
	f.Errors["uname"] = errors.New("uname: not found")

	if got := Detect(t.Context(), f, envctx.New()); got != Unsupported {
		t.Errorf("Detect() on probe failure = %q, want unsupported", got)
	}
}
