package commands

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/paths"
	"github.com/danbriechle/One-Step-Machine-Setup/pkg/fileutil"
)

var initConfigForce bool

func init() {
	initConfigCmd.Flags().BoolVarP(&initConfigForce, "force", "f", false,
		"overwrite an existing config file")
	rootCmd.AddCommand(initConfigCmd)
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default configuration file",
	Long: `Write the built-in defaults to the configuration file so they can be
edited. The bootstrap runs fine without one; this is only needed to
change versions, packages, or the target shell profile.

The file is written to $XDG_CONFIG_HOME/machine-setup/config.yaml.`,
	RunE: runInitConfig,
}

func runInitConfig(cmd *cobra.Command, _ []string) error {
	path := paths.ConfigFile()

	if _, err := os.Stat(path); err == nil && !initConfigForce {
		return errors.Newf("%s already exists (use --force to overwrite)", path)
	}

	// With --force this re-materializes the effective config, normalizing
	// whatever the existing file contains.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := paths.EnsureDir(paths.ConfigDir(), paths.DefaultDirPerm); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := fileutil.AtomicWriteYAML(path, cfg); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
