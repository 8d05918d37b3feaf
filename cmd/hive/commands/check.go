package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/backlinkradio/hive/internal/audit"
	"github.com/backlinkradio/hive/internal/gateway"
	"github.com/backlinkradio/hive/internal/printer"
	"github.com/backlinkradio/hive/pkg/constitution"
)

var (
	checkOutputFormat string
	checkLogDecision  bool
	checkBeeType      string
)

var checkCmd = &cobra.Command{
	Use:   "check ACTION_FILE",
	Short: "Evaluate an action against the constitution",
	Long: `Evaluate a proposed action against the station's constitution.

The action is read as JSON from ACTION_FILE (or stdin when ACTION_FILE is
"-") and run through the full principle chain. The command exits non-zero
when the action is blocked, so it can gate scripted pipelines.

Output Formats:
  default - Human-readable verdict
  json    - The full decision as pretty-printed JSON

Examples:
  # Check a deal before executing it
  hive check deal.json

  # Pipe an action in and capture the rewritten form
  echo '{"type":"social_post","content":"gig tonight","is_sponsored":true}' | hive check - --output=json

  # Record the verdict in the constitutional log
  hive check deal.json --log --bee=deal_bee`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutputFormat, "output", "o", "default", "Output format: default or json")
	checkCmd.Flags().BoolVar(&checkLogDecision, "log", false, "Record the decision in the constitutional log")
	checkCmd.Flags().StringVar(&checkBeeType, "bee", "cli", "Bee type to record in the audit entry")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkOutputFormat != "default" && checkOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", checkOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	action, err := readAction(args[0])
	if err != nil {
		return printer.Error(
			"failed to read action",
			err.Error(),
			[]string{"Pass a JSON file containing a single action object, or - for stdin"},
		)
	}

	decision := gateway.New(cfg.Constitution()).Evaluate(action)

	if checkLogDecision {
		if err := os.MkdirAll(logsDir(cfg), 0o755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		engine, err := audit.NewEngine(constitutionalLogPath(cfg))
		if err != nil {
			return err
		}
		if err := engine.Log(checkBeeType, action, decision); err != nil {
			return err
		}
	}

	if checkOutputFormat == "json" {
		data, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal decision: %w", err)
		}
		printer.Println(string(data))
	} else {
		printDecision(decision)
	}

	if decision.Blocked() {
		return fmt.Errorf("action blocked: %s", decision.Reason)
	}
	return nil
}

func readAction(path string) (constitution.Action, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var action constitution.Action
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, fmt.Errorf("invalid action JSON: %w", err)
	}
	return action, nil
}

func printDecision(decision constitution.Decision) {
	switch decision.Status {
	case constitution.StatusApprove:
		printer.Success("APPROVE: %s\n", decision.Reason)
	case constitution.StatusModify:
		printer.Warning("MODIFY: %s\n", decision.Reason)
		final, err := json.MarshalIndent(decision.Action, "", "  ")
		if err == nil {
			printer.Info("\nRewritten action:\n%s\n", final)
		}
	case constitution.StatusBlock:
		printer.Security("BLOCK: %s\n", decision.Reason)
	}
}
