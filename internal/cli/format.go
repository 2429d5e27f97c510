package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emilstricker/regnemetoden/internal/plan"
)

const (
	dateLayout   = "Mon Jan 2, 2006"
	barWidth     = 30
	timeOfDayFmt = "15:04"
)

func formatKg(v float64) string {
	return fmt.Sprintf("%.1f kg", v)
}

func formatGrams(v float64) string {
	return fmt.Sprintf("%.0f g", v)
}

func formatSignedGrams(v float64) string {
	return fmt.Sprintf("%+.0f g", v)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// progressBar renders ratio as a fixed-width bar, clamped to 0..1.
func progressBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// remainingStyle colors what is left of the day's allowance.
func remainingStyle(remaining float64) func(string) string {
	if remaining < 0 {
		return Error
	}
	return Good
}

// printGoal prints the numbers that define a plan.
func printGoal(w io.Writer, g plan.Goal) {
	_, _ = fmt.Fprintf(w, "%s  %s %s %s\n", Silent("Plan:"),
		Primary(formatKg(g.StartWeight)), Silent("->"), Primary(formatKg(g.TargetWeight)))
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", Silent("Runs:"),
		Text(fmt.Sprintf("%d days", g.NumberOfDays)), Silent("·"),
		Text(formatDate(g.StartDate)+" to "+formatDate(plan.EndDate(g))))
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", Silent("Pace:"),
		Text(fmt.Sprintf("%d g/day", plan.DailyLossGrams(g))), Silent("·"),
		Text(fmt.Sprintf("%.2f kg/week", plan.WeeklyLoss(g))))
}
