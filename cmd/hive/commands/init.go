package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backlinkradio/hive/internal/scaffold"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hive instance",
	Long: `Initialize a new hive instance with default configuration.

Creates:
  • hive.yml - Instance configuration file
  • honeycomb/ - Shared state directory
  • honeycomb/logs/ - Append-only audit logs

Use --force to replace an existing hive.yml. The honeycomb directories are
never removed; they may hold live state and audit history.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force reinitialization (replaces existing hive.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()

	return nil
}
