package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/backlinkradio/hive/internal/audit"
	"github.com/backlinkradio/hive/internal/printer"
)

var (
	reportOutputFormat string
	reportDate         string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Daily compliance report from the constitutional log",
	Long: `Build the daily compliance report by replaying the constitutional log.

The report covers one UTC day (today unless --date is given): total actions,
compliance score, blocked and modified counts, and per-violation details.
Lines truncated by a crash are skipped so partial history stays readable.

Output Formats:
  default - Human-readable summary table
  json    - The full report as pretty-printed JSON

Examples:
  # Today's compliance posture
  hive report

  # A specific day, as JSON for dashboards
  hive report --date=2026-08-27 --output=json`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutputFormat, "output", "o", "default", "Output format: default or json")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Day to report on (YYYY-MM-DD, UTC; defaults to today)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportOutputFormat != "default" && reportOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", reportOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	day := reportDate
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return printer.Error(
			"invalid date",
			fmt.Sprintf("Could not parse %q", reportDate),
			[]string{"Use YYYY-MM-DD, e.g. --date=2026-08-27"},
		)
	}

	f, err := os.Open(constitutionalLogPath(cfg))
	if err != nil {
		if os.IsNotExist(err) {
			printer.Info("No constitutional log yet; nothing to report.\n")
			return nil
		}
		return fmt.Errorf("failed to open constitutional log: %w", err)
	}
	defer f.Close()

	report, err := audit.ReplayDay(f, day, time.Now().UTC())
	if err != nil {
		return err
	}

	if reportOutputFormat == "json" {
		return audit.FormatReportJSON(os.Stdout, report)
	}
	audit.FormatReportTable(os.Stdout, report)
	return nil
}
