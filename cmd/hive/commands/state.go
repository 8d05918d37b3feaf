package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backlinkradio/hive/internal/printer"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the signed shared state",
	Long: `Inspect the hive's signed shared state document.

Subcommands:
  get    - Print the current state data as pretty-printed JSON
  verify - Verify the state signature and report tamper status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var stateGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current shared state",
	Args:  cobra.NoArgs,
	RunE:  runStateGet,
}

var stateVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the state signature",
	Long: `Verify the shared state's HMAC signature.

Exits non-zero when the signature does not match, regardless of the
instance's fail_closed setting. A legacy unsigned document is reported but
is not a failure.`,
	Args: cobra.NoArgs,
	RunE: runStateVerify,
}

func init() {
	stateCmd.AddCommand(stateGetCmd)
	stateCmd.AddCommand(stateVerifyCmd)
	rootCmd.AddCommand(stateCmd)
}

func runStateGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager, _, closer, err := openStateManager(cfg)
	if err != nil {
		return err
	}
	defer closer()

	state, err := manager.Read(context.Background())
	if err != nil {
		return err
	}

	if state.Unverified {
		printer.Warning("state is unverified; treat with suspicion\n")
	}

	data, err := json.MarshalIndent(state.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	printer.Println(string(data))
	return nil
}

func runStateVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manager, _, closer, err := openStateManager(cfg)
	if err != nil {
		return err
	}
	defer closer()

	state, err := manager.Read(context.Background())
	if err != nil {
		// Fail-closed instances surface a mismatch as an error.
		printer.Security("state verification failed: %v\n", err)
		return fmt.Errorf("state verification failed")
	}

	switch {
	case state.Legacy:
		printer.Warning("state predates the signing scheme (legacy, unsigned)\n")
	case state.Unverified:
		printer.Security("state signature does NOT match; possible tampering\n")
		return fmt.Errorf("state verification failed")
	default:
		printer.Success("state signature verified\n")
	}
	return nil
}
