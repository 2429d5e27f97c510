package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/dayzero"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var statusCmd = LeafCommand{
	Use:   "status",
	Short: "Show today's target, allowance and what is left",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return runStatus(cmd, s.tracker)
		})
	},
}.Build()

func runStatus(cmd *cobra.Command, tr *tracker.Tracker) error {
	v, err := tr.Today(commandContext(cmd))
	if err != nil {
		return err
	}
	printView(cmd, v)
	return nil
}

func printView(cmd *cobra.Command, v tracker.View) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s  %s\n", Silent("Today:"), Primary(formatDate(v.Date)))

	switch v.State {
	case dayzero.NoGoal:
		_, _ = fmt.Fprintf(w, "\n%s\n", Text("no plan yet, run "+Primary("regnemetoden setup")))
		return
	case dayzero.PendingTonight:
		_, _ = fmt.Fprintln(w)
		printGoal(w, *v.Pending)
		_, _ = fmt.Fprintf(w, "\n%s  %s\n", Info("Day zero:"),
			Text("weigh yourself tonight and run "+Primary("regnemetoden dayzero weigh <kg>")))
		return
	case dayzero.WeightCaptured:
		_, _ = fmt.Fprintln(w)
		printGoal(w, *v.Pending)
		_, _ = fmt.Fprintf(w, "\n%s  %s\n", Info("Day zero:"),
			Text("weight saved, your plan starts tomorrow"))
		return
	}

	_, _ = fmt.Fprintf(w, "%s    %s  %s  %s\n", Silent("Day:"),
		Primary(fmt.Sprintf("%d of %d", v.DayNumber, v.Goal.NumberOfDays)), Silent("·"),
		Text(fmt.Sprintf("target %s", formatKg(v.TargetWeight))))

	if !v.Weighed() {
		_, _ = fmt.Fprintf(w, "\n%s\n", Warning("no morning weight yet, run regnemetoden weigh <kg>"))
	} else {
		_, _ = fmt.Fprintf(w, "%s  %s\n", Silent("Weight:"), Primary(formatKg(*v.Entry.Weight)))
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s  %s\n", Silent("Allowance:"), Text(formatGrams(v.Allowance)))
	_, _ = fmt.Fprintf(w, "%s   %s\n", Silent("Consumed:"), Text(formatGrams(v.Consumed)))
	_, _ = fmt.Fprintf(w, "%s  %s\n", Silent("Remaining:"), remainingStyle(v.Remaining)(formatGrams(v.Remaining)))
	_, _ = fmt.Fprintf(w, "%s\n", Info(progressBar(v.Progress, barWidth)))

	if v.Summary != nil {
		sum := v.Summary
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n", Silent("Progress:"),
			Text(formatKg(sum.TotalLoss)+" lost"), Silent("·"),
			Text(formatKg(sum.RemainingWeight)+" to go"), Silent("·"),
			Text(fmt.Sprintf("%d days left", sum.DaysLeft)))
	}
}
