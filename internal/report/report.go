package report

import (
	"fmt"
	"time"

	"github.com/emilstricker/regnemetoden/internal/allowance"
	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
)

// Row is one plan day: the projected target next to what actually happened.
type Row struct {
	Date      time.Time `json:"date"`
	Day       int       `json:"day"`
	Target    float64   `json:"target"`
	Weight    *float64  `json:"weight,omitempty"`
	Consumed  float64   `json:"consumed"`
	Allowance float64   `json:"allowance"`
	Remaining float64   `json:"remaining"`
	Logged    bool      `json:"logged"`
}

// Totals sums the rows.
type Totals struct {
	Days       int     `json:"days"`
	Weighed    int     `json:"weighed"`
	Consumed   float64 `json:"consumed"`
	Allowance  float64 `json:"allowance"`
	// OverBudget counts weighed days that ended with a negative remainder.
	OverBudget int     `json:"overBudget"`
}

// Report is the target-vs-actual history of a plan.
type Report struct {
	Goal     plan.Goal         `json:"goal"`
	Through  time.Time         `json:"through"`
	Rows     []Row             `json:"rows"`
	Totals   Totals            `json:"totals"`
	Progress allowance.Summary `json:"progress"`
}

// Build lays the day entries over the plan schedule from the start date
// through the given day. Entries outside that window, including weigh-ins
// from before the plan started, are ignored.
func Build(g plan.Goal, entries []day.Entry, through time.Time) (Report, error) {
	through = clock.StartOfDay(through)
	schedule, err := plan.Schedule(g, through)
	if err != nil {
		return Report{}, fmt.Errorf("building schedule: %w", err)
	}

	byKey := make(map[string]day.Entry, len(entries))
	for _, e := range entries {
		byKey[e.Key()] = e
	}

	r := Report{Goal: g, Through: through, Rows: make([]Row, 0, len(schedule))}
	for _, dt := range schedule {
		row := Row{Date: dt.Date, Day: dt.Day, Target: dt.Target}
		if e, ok := byKey[day.Key(dt.Date)]; ok {
			b := allowance.Compute(dt.Target, &e)
			row.Logged = true
			row.Weight = e.Weight
			row.Consumed = b.Consumed
			row.Allowance = b.Allowance
			row.Remaining = b.Remaining
		}
		r.Rows = append(r.Rows, row)
		r.add(row)
	}
	r.Progress = allowance.Progress(g, entries, through)
	return r, nil
}

func (r *Report) add(row Row) {
	r.Totals.Days++
	r.Totals.Consumed += row.Consumed
	if row.Weight == nil {
		return
	}
	r.Totals.Weighed++
	r.Totals.Allowance += row.Allowance
	if row.Remaining < 0 {
		r.Totals.OverBudget++
	}
}

// Filename suggests an export file name, e.g. "regnemetoden-2025-04-01-2025-05-10.pdf".
func Filename(r Report, ext string) string {
	return fmt.Sprintf("regnemetoden-%s-%s.%s", day.Key(r.Goal.StartDate), day.Key(r.Through), ext)
}
