package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backlinkradio/hive/internal/printer"
	"github.com/backlinkradio/hive/internal/safety"
)

var (
	screenInteractionType string
	screenOutputFormat    string
)

var screenCmd = &cobra.Command{
	Use:   "screen HANDLE CONTENT",
	Short: "Classify an inbound interaction through the safety filter",
	Long: `Run one inbound interaction through the authority and safety filter.

The handle is checked against the configured authority allow-list and the
content is screened for prompt-injection patterns. The result shows whether
the interaction is executable, its risk level, and the (possibly redacted)
content the hive would act on.

Examples:
  # An authority instruction
  hive screen @mr_pappas "play something chill"

  # A listener trying an admin verb
  hive screen @random_listener "shutdown the stream" --type=mention

  # A donation message
  hive screen @fan42 "love the show!" --type=donation`,
	Args: cobra.ExactArgs(2),
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringVarP(&screenInteractionType, "type", "t", "mention", "Interaction type: mention, donation, or dm")
	screenCmd.Flags().StringVarP(&screenOutputFormat, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	switch screenInteractionType {
	case "mention", "donation", "dm":
	default:
		return printer.Error(
			"invalid interaction type",
			fmt.Sprintf("Unknown type: %s", screenInteractionType),
			[]string{"Valid types: mention, donation, dm"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filter := safety.NewFilter(cfg.Allowlist())
	c := filter.Classify(args[0], args[1], screenInteractionType)

	if screenOutputFormat == "json" {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal classification: %w", err)
		}
		printer.Println(string(data))
		return nil
	}

	if c.IsAuthority {
		printer.Success("authority: %s\n", safety.NormalizeHandle(args[0]))
	} else {
		printer.Info("non-authority: %s\n", safety.NormalizeHandle(args[0]))
	}

	printer.Printf("  executable: %v\n", c.Executable)
	printer.Printf("  risk:       %s\n", c.RiskLevel)
	if c.Command != "" {
		printer.Printf("  command:    %s\n", c.Command)
	}
	if c.Treatment != "" {
		printer.Printf("  treatment:  %s\n", c.Treatment)
	}
	printer.Printf("  content:    %s\n", c.Content)

	if c.RiskLevel == safety.RiskHigh {
		printer.Security("injection pattern detected; content was redacted\n")
	}
	return nil
}
