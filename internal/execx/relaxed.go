package execx

// Third-party activation scripts (sdkman-init.sh, nvm.sh) are not written to
// tolerate `set -u`. Relaxed wraps a script fragment so that strict
// undefined-variable checking is suspended for the fragment and restored
// afterward no matter how the fragment exits. The fragment's exit status is
// captured in StatusVar instead of aborting the surrounding script.

// StatusVar is the shell variable holding the wrapped fragment's exit status.
const StatusVar = "_msetup_rc"

const hadStrictVar = "_msetup_had_u"

// Relaxed returns a script that runs body with `set -u` disabled and
// restores the prior option state unconditionally. The caller reads
// $_msetup_rc to learn how body exited.
func Relaxed(body string) string {
	return `case "$-" in *u*) ` + hadStrictVar + `=1 ;; *) ` + hadStrictVar + `=0 ;; esac
set +u
` + StatusVar + `=0
{
` + body + `
} || ` + StatusVar + `=$?
if [ "$` + hadStrictVar + `" = "1" ]; then set -u; fi
`
}

// StrictPreamble is the option line every generated script starts with,
// mirroring the strict mode the interactive bootstrap runs under.
const StrictPreamble = "set -euo pipefail"
