package audit

import (
	"encoding/json"
	"fmt"
	"io"
)

// FormatReportTable writes a daily compliance report as a formatted table to
// the provided writer, including a row per blocked violation.
func FormatReportTable(w io.Writer, report Report) {
	fmt.Fprintf(w, "Compliance report for %s:\n\n", report.Date)

	fmt.Fprintf(w, "  Total actions:     %d\n", report.TotalActions)
	fmt.Fprintf(w, "  Compliance score:  %.2f%%\n", report.ComplianceScore)
	fmt.Fprintf(w, "  Blocked:           %d\n", report.ViolationsBlocked)
	fmt.Fprintf(w, "  Modified:          %d\n", report.ModificationsApplied)
	fmt.Fprintf(w, "  Status:            %s\n", report.Status)

	if len(report.ViolationDetails) == 0 {
		return
	}

	fmt.Fprintf(w, "\nBlocked actions:\n\n")
	fmt.Fprintf(w, "%-10s %-18s %-22s %s\n",
		"TIME", "BEE", "TYPE", "REASON")
	fmt.Fprintf(w, "%-10s %-18s %-22s %s\n",
		"----------", "------------------", "----------------------", "----------------------------------------")

	for _, v := range report.ViolationDetails {
		fmt.Fprintf(w, "%-10s %-18s %-22s %s\n",
			v.Timestamp.UTC().Format("15:04:05"),
			truncate(v.BeeType, 18),
			truncate(v.ActionType, 22),
			v.DecisionReason,
		)
	}
}

// FormatReportJSON writes a daily compliance report as pretty-printed JSON.
func FormatReportJSON(w io.Writer, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
