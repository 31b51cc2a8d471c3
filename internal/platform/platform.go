// Package platform classifies the host operating system for the bootstrap.
package platform

import (
	"context"
	"strings"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
)

// OS is the closed set of platform tags the bootstrap branches on.
type OS string

const (
	// Mac indicates a Darwin kernel.
	Mac OS = "mac"

	// Linux indicates a Linux kernel.
	Linux OS = "linux"

	// Unsupported indicates any other kernel. Platform-gated steps no-op on
	// unsupported hosts; the run itself does not fail.
	Unsupported OS = "unsupported"
)

// Classify maps a kernel name as reported by uname -s to a platform tag.
func Classify(kernel string) OS {
	switch strings.TrimSpace(kernel) {
	case "Darwin":
		return Mac
	case "Linux":
		return Linux
	default:
		return Unsupported
	}
}

// Detect probes the running kernel via uname -s. A probe failure yields
// Unsupported rather than an error so the version-manager steps, which are
// platform-independent, still run.
func Detect(ctx context.Context, runner execx.Runner, env *envctx.Env) OS {
	out, err := runner.Output(ctx, env, "uname", "-s")
	if err != nil {
		return Unsupported
	}
	return Classify(out)
}
