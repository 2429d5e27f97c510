package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/report"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var reportCmd = LeafCommand{
	Use:   "report",
	Short: "Compare each plan day's target with what happened",
	StrFlags: []StringFlag{
		{Name: "export", Usage: "export format (pdf)"},
		{Name: "output", Usage: "export file path (default: regnemetoden-<start>-<today>.pdf)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		exportFlag, _ := cmd.Flags().GetString("export")
		outputFlag, _ := cmd.Flags().GetString("output")
		return withSession(cmd, func(s *session) error {
			return runReport(cmd, s.tracker, exportFlag, outputFlag)
		})
	},
}.Build()

func runReport(cmd *cobra.Command, tr *tracker.Tracker, exportFlag, outputFlag string) error {
	r, err := tr.Report(commandContext(cmd))
	if err != nil {
		return err
	}

	if exportFlag != "" {
		if exportFlag != "pdf" {
			return fmt.Errorf("unsupported export format %q (supported: pdf)", exportFlag)
		}
		outputPath := outputFlag
		if outputPath == "" {
			outputPath = report.Filename(r, "pdf")
		}
		if err := renderReportPDF(r, outputPath); err != nil {
			return err
		}
		abs, _ := filepath.Abs(outputPath)
		if abs == "" {
			abs = outputPath
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Text("exported report to"), Primary(abs))
		return nil
	}

	printReportTable(cmd.OutOrStdout(), r)
	return nil
}

func printReportTable(w io.Writer, r report.Report) {
	header := fmt.Sprintf("%4s  %-10s  %9s  %9s  %9s  %9s  %9s",
		"Day", "Date", "Target", "Weight", "Allowance", "Eaten", "Left")
	_, _ = fmt.Fprintln(w, Silent(header))

	for _, row := range r.Rows {
		weight := "-"
		if row.Weight != nil {
			weight = formatKg(*row.Weight)
		}
		left := "-"
		if row.Weight != nil {
			left = formatGrams(row.Remaining)
		}
		line := fmt.Sprintf("%4d  %-10s  %9s  %9s  %9s  %9s  ",
			row.Day, row.Date.Format("2006-01-02"), formatKg(row.Target), weight,
			formatGrams(row.Allowance), formatGrams(row.Consumed))
		_, _ = fmt.Fprintf(w, "%s%s\n", Text(line), remainingStyle(row.Remaining)(fmt.Sprintf("%9s", left)))
	}

	t := r.Totals
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n", Silent("Days:"),
		Text(fmt.Sprintf("%d (%d weighed)", t.Days, t.Weighed)), Silent("·"),
		Text(formatGrams(t.Consumed)+" eaten of "+formatGrams(t.Allowance)), Silent("·"),
		Text(fmt.Sprintf("%d over budget", t.OverBudget)))
	p := r.Progress
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", Silent("Progress:"),
		Text(formatKg(p.TotalLoss)+" lost"), Silent("·"), Text(formatKg(p.RemainingWeight)+" to go"))
}
