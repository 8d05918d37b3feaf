package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hive",
	Short: "Hive - Constitutional governance for autonomous media agents",
	Long: `Hive is the governance and integrity layer of an autonomous media
station run by a colony of task-specific agents (bees).

Every state-changing action a bee proposes passes through a policy gateway
that enforces the station's constitution, every verdict lands in an
append-only audit trail, and all shared state is HMAC-signed so tampering
is detectable. This CLI inspects and operates that machinery.`,
	Version: version,
	// If no subcommand is specified, show help rather than succeeding
	// silently
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "hive.yml", "Path to the hive configuration file")
}
