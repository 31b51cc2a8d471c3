package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/paths"
	"github.com/danbriechle/One-Step-Machine-Setup/internal/state"
)

var statusJSONFlag bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSONFlag, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the last bootstrap installed",
	Long: `Show the version managers the last bootstrap run recorded, with their
installed runtime versions and selected defaults.

The recorded state is cross-checked against the disk: a manager whose
install directory has since disappeared is reported as missing. Run
machine-setup doctor for deeper diagnostics.`,
	Example: `  # Human-readable table
  machine-setup status

  # JSON output for scripting
  machine-setup status --json`,
	RunE: runStatus,
}

// managerStatus is one row of the status report.
type managerStatus struct {
	Name      string   `json:"name"`
	Installed bool     `json:"installed"`
	OnDisk    bool     `json:"on_disk"`
	Default   string   `json:"default,omitempty"`
	Versions  []string `json:"versions,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	home, err := paths.ResolveHome()
	if err != nil {
		return setuperrors.NewSystemError(err, "set HOME and re-run")
	}

	st, err := state.Load(paths.StateFile())
	if err != nil {
		return errors.Wrap(err, "loading state")
	}

	rows := make([]managerStatus, 0, len(paths.Managers()))
	for _, name := range paths.Managers() {
		ms := st.Managers[name]
		row := managerStatus{
			Name:      name,
			Installed: ms.Installed,
			OnDisk:    dirExists(paths.ManagerHome(home, name)),
			Default:   ms.Default,
			Versions:  ms.Versions,
		}
		if !ms.UpdatedAt.IsZero() {
			row.UpdatedAt = ms.UpdatedAt.Format("2006-01-02 15:04 MST")
		}
		rows = append(rows, row)
	}

	if statusJSONFlag {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(rows), "encoding JSON status")
	}

	printStatusTable(cmd.OutOrStdout(), st.Platform, rows)
	return nil
}

func printStatusTable(out io.Writer, osTag string, rows []managerStatus) {
	if osTag != "" {
		fmt.Fprintf(out, "Platform: %s\n\n", osTag)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MANAGER\tSTATE\tDEFAULT\tVERSIONS\tUPDATED")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Name,
			statusWord(row),
			orDash(row.Default),
			orDash(strings.Join(row.Versions, ", ")),
			orDash(row.UpdatedAt))
	}
	w.Flush()
}

// statusWord renders the recorded/on-disk combination. The interesting case
// is a manager recorded as installed whose directory has since disappeared.
func statusWord(row managerStatus) string {
	switch {
	case row.OnDisk && row.Installed:
		return color.GreenString("installed")
	case row.OnDisk:
		return color.YellowString("present (not recorded)")
	case row.Installed:
		return color.RedString("missing from disk")
	default:
		return "not installed"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
