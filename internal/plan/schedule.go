package plan

import (
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/teambition/rrule-go"
)

// DayTarget is one day of the plan with its projected weight.
type DayTarget struct {
	Day    int
	Date   time.Time
	Target float64
}

// Schedule lists the target weight for every plan day from day 0 through
// NumberOfDays, stopping after through (inclusive).
func Schedule(g Goal, through time.Time) ([]DayTarget, error) {
	start := clock.StartOfDay(g.StartDate)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   g.NumberOfDays + 1,
		Dtstart: start,
	})
	if err != nil {
		return nil, err
	}

	end := clock.StartOfDay(through)
	if planEnd := EndDate(g); planEnd.Before(end) {
		end = planEnd
	}

	dates := r.Between(start, end, true)
	out := make([]DayTarget, 0, len(dates))
	for _, d := range dates {
		out = append(out, DayTarget{
			Day:    DayNumber(g, d),
			Date:   d,
			Target: TargetWeightForDay(g, d),
		})
	}
	return out, nil
}
