package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var planCmd = LeafCommand{
	Use:   "plan",
	Short: "Show the plan and its day-by-day target weights",
	BoolFlags: []BoolFlag{
		{Name: "weekly", Usage: "only list every seventh day"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		weekly, _ := cmd.Flags().GetBool("weekly")
		return withSession(cmd, func(s *session) error {
			return runPlan(cmd, s.tracker, weekly)
		})
	},
}.Build()

func runPlan(cmd *cobra.Command, tr *tracker.Tracker, weekly bool) error {
	v, err := tr.Today(commandContext(cmd))
	if err != nil {
		return err
	}
	g := v.Goal
	if g == nil {
		g = v.Pending
	}
	if g == nil {
		return tracker.ErrNoGoal
	}

	w := cmd.OutOrStdout()
	printGoal(w, *g)
	if !v.Active() {
		_, _ = fmt.Fprintf(w, "%s  %s\n", Silent("Status:"), Info("waiting for the day-zero weigh-in"))
	}
	_, _ = fmt.Fprintln(w)

	days, err := plan.Schedule(*g, plan.EndDate(*g))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s\n", Silent(fmt.Sprintf("%5s  %-16s  %9s", "Day", "Date", "Target")))
	for _, d := range days {
		last := d.Day == g.NumberOfDays
		if weekly && d.Day%7 != 0 && !last {
			continue
		}
		line := fmt.Sprintf("%5d  %-16s  %9s", d.Day, d.Date.Format("Mon 2006-01-02"), formatKg(d.Target))
		if clock.SameDay(d.Date, v.Date) {
			_, _ = fmt.Fprintf(w, "%s %s\n", Primary(line), Primary("<- today"))
			continue
		}
		_, _ = fmt.Fprintln(w, Text(line))
	}
	return nil
}
