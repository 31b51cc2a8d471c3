package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/doctor"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/envctx"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/execx"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/paths"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/platform"
)

var (
	doctorJSON    bool
	doctorQuiet   bool
	doctorVerbose bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorQuiet, "quiet", false,
		"suppress output, exit code only")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "verbose", false,
		"show detailed check-by-check output")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the machine-setup install",
	Long: `Run diagnostic checks on the provisioned environment.

Verifies the platform is supported, required tools resolve, the shell
startup file is writable, each version manager's install is intact, and
the recorded state is readable.

Output modes (mutually exclusive):
  (default)   Show errors and warnings
  --verbose   Show all checks including passed ones
  --quiet     No output, exit code only
  --json      Machine-readable JSON output

Exit codes:
  0 - All checks passed (no errors or warnings)
  1 - Warnings present, no errors
  2 - Errors present`,
	PreRunE: validateDoctorFlags,
	RunE:    runDoctor,
}

// validateDoctorFlags ensures output flags are mutually exclusive.
func validateDoctorFlags(_ *cobra.Command, _ []string) error {
	count := 0
	if doctorJSON {
		count++
	}
	if doctorQuiet {
		count++
	}
	if doctorVerbose {
		count++
	}

	if count > 1 {
		return errors.New("flags --json, --quiet, and --verbose are mutually exclusive")
	}

	return nil
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	runner := execx.New()
	env := envctx.FromEnviron()

	home, err := paths.ResolveHome()
	if err != nil {
		return setuperrors.NewSystemError(err, "set HOME and re-run")
	}

	r := doctor.NewRunner()
	r.AddCheck(doctor.NewPlatformCheck(runner, env))
	r.AddCheck(doctor.NewRequiredToolsCheck(runner, env))
	r.AddCheck(doctor.NewStartupFileCheck(paths.ShellStartupFile(home)))
	if platform.Detect(ctx, runner, env) == platform.Mac {
		r.AddCheck(doctor.NewHomebrewCheck(runner, env))
	}
	for _, name := range paths.Managers() {
		r.AddCheck(doctor.NewManagerCheck(name, home))
	}
	r.AddCheck(doctor.NewStateFileCheck(paths.StateFile()))

	report := r.Run(ctx)

	if err := outputDoctorReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if report.HasErrors() {
		return setuperrors.NewExitError(errors.New("doctor found errors"), setuperrors.ExitSystem)
	}
	if report.HasWarnings() {
		return setuperrors.NewExitError(errors.New("doctor found warnings"), setuperrors.ExitFatal)
	}
	return nil
}

func outputDoctorReport(out io.Writer, report *doctor.Report) error {
	if doctorQuiet {
		return nil
	}

	if doctorJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "encoding JSON report")
	}

	return outputDoctorText(out, report)
}

func outputDoctorText(out io.Writer, report *doctor.Report) error {
	// In normal mode, show only errors and warnings
	// In verbose mode, show all checks
	showAll := doctorVerbose

	hasOutput := false
	for _, result := range report.Results {
		if !showAll && result.Status != doctor.SeverityError && result.Status != doctor.SeverityWarning {
			continue
		}

		hasOutput = true
		fmt.Fprintf(out, "%s [%s] %s: %s\n",
			severityIcon(result.Status), result.Category, result.Name, result.Message)

		if result.FixHint != "" && (result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning) {
			fmt.Fprintf(out, "  hint: %s\n", result.FixHint)
		}
	}

	if hasOutput || showAll {
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)

	return nil
}

func severityIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return "✓"
	case doctor.SeverityInfo:
		return "ℹ"
	case doctor.SeverityWarning:
		return "⚠"
	case doctor.SeverityError:
		return "✗"
	default:
		return "?"
	}
}
