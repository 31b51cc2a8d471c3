package commands

import (
	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
)

// envForTest returns an environment context detached from the process
// environment so command tests never depend on the host.
func envForTest() *envctx.Env {
	env := envctx.New()
	env.Set("HOME", "/home/u")
	env.Set("PATH", "/usr/bin:/bin")
	return env
}
