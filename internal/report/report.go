// Package report renders the end-of-bootstrap summary banner.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/step"
)

// Summary is everything the banner prints.
type Summary struct {
	// Platform is the host's platform tag.
	Platform string

	// Defaults maps manager name to the default version it selected. Managers
	// that selected nothing are omitted.
	Defaults map[string]string

	// StartupFile is the shell startup file the bootstrap wrote to.
	StartupFile string

	// Results are the per-step outcomes, in run order.
	Results []step.Result
}

// Reporter writes bootstrap summaries.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Banner writes the completion summary: per-step outcomes, the selected
// defaults, and how to pick the changes up in the current shell.
func (r *Reporter) Banner(s Summary) {
	failed := 0
	for _, res := range s.Results {
		if res.Status == step.StatusFailed {
			failed++
		}
	}

	fmt.Fprintln(r.out)
	if failed == 0 {
		fmt.Fprintln(r.out, color.GreenString("✓ Machine setup complete")+" ("+s.Platform+")")
	} else {
		fmt.Fprintf(r.out, "%s (%s, %s)\n",
			color.YellowString("⚠ Machine setup finished with issues"),
			s.Platform, color.YellowString("%d step(s) failed", failed))
	}
	fmt.Fprintln(r.out)

	for _, res := range s.Results {
		fmt.Fprintf(r.out, "  %s %s\n", statusMark(res.Status), res.Name)
		if res.Err != nil {
			fmt.Fprintf(r.out, "      %s\n", color.New(color.FgHiBlack).Sprint(res.Err))
		}
	}

	if len(s.Defaults) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Defaults:")
		names := make([]string, 0, len(s.Defaults))
		for name := range s.Defaults {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(r.out, "  %-8s %s\n", name, color.CyanString(s.Defaults[name]))
		}
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Restart your shell or run: %s\n",
		color.CyanString("source %s", s.StartupFile))
}

func statusMark(st step.Status) string {
	switch st {
	case step.StatusOK:
		return color.GreenString("✓")
	case step.StatusSkipped:
		return color.New(color.FgHiBlack).Sprint("•")
	case step.StatusFailed:
		return color.RedString("✗")
	default:
		return "?"
	}
}

// Plain renders the banner without color, for tests and non-TTY output.
func Plain(s Summary) string {
	restore := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = restore }()

	var b strings.Builder
	NewReporter(&b).Banner(s)
	return b.String()
}
