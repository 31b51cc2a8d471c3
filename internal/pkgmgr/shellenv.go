package pkgmgr

import (
	"strings"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/shellcfg"
)

// ShellSnippet returns the startup-file lines that put brew on PATH in
// future shells. Guarded per prefix so the same line works on Apple Silicon
// and Intel installs.
func ShellSnippet() shellcfg.Snippet {
	lines := make([]string, 0, len(brewPrefixes))
	for _, prefix := range brewPrefixes {
		lines = append(lines,
			`[ -x "`+prefix+`/bin/brew" ] && eval "$(`+prefix+`/bin/brew shellenv)"`)
	}
	return shellcfg.Snippet{Comment: "# homebrew", Lines: lines}
}

// ParseShellEnv extracts variables from `brew shellenv` output, which is a
// series of lines like:
//
//	export HOMEBREW_PREFIX="/opt/homebrew";
//	export PATH="/opt/homebrew/bin:/opt/homebrew/sbin${PATH+:$PATH}";
//
// Values are unquoted and the ${PATH+:$PATH} suffix idiom is dropped; the
// caller merges the result, which re-prepends new PATH entries anyway.
func ParseShellEnv(out string) *envctx.Env {
	env := envctx.New()

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "export ") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		line = strings.TrimSuffix(line, ";")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		value = strings.ReplaceAll(value, "${PATH+:$PATH}", "")
		value = strings.ReplaceAll(value, ":$PATH", "")

		env.Set(key, value)
	}
	return env
}
