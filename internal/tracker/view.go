package tracker

import (
	"time"

	"github.com/emilstricker/regnemetoden/internal/allowance"
	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/dayzero"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/store"
)

// View is everything a screen needs to render today.
type View struct {
	Date      time.Time     `json:"date"`
	State     dayzero.State `json:"state"`
	IsDayZero bool          `json:"isDayZero"`

	Goal    *plan.Goal `json:"goal,omitempty"`
	Pending *plan.Goal `json:"pending,omitempty"`

	// Set only while a plan is active.
	DayNumber      int     `json:"dayNumber"`
	TargetWeight   float64 `json:"targetWeight"`
	DailyLossGrams int     `json:"dailyLossGrams"`

	Entry day.Entry       `json:"entry"`
	Food  []day.FoodEntry `json:"food"`
	allowance.Budget
	Summary *allowance.Summary `json:"summary,omitempty"`
}

// Weighed reports whether today's morning weight is logged.
func (v View) Weighed() bool {
	return v.Entry.HasWeight()
}

// Active reports whether the plan is running.
func (v View) Active() bool {
	return v.State == dayzero.Active
}

// BuildView computes today's view from a snapshot. A pending plan that is
// due for promotion is shown as the active plan it is about to become.
func BuildView(snap store.Snapshot, today time.Time) View {
	today = clock.StartOfDay(today)
	v := View{
		Date:      today,
		State:     dayzero.Resolve(snap.Goal, snap.Pending, today),
		IsDayZero: dayzero.IsDayZero(snap.Pending, today),
		Goal:      snap.Goal,
		Pending:   snap.Pending,
	}

	if e := day.Find(snap.Entries, today); e != nil {
		v.Entry = *e
	} else {
		v.Entry = day.Entry{Date: today, FoodEntries: []day.FoodEntry{}}
	}
	v.Food = day.SortedFood(v.Entry)

	g := activeGoal(snap, today)
	if g == nil {
		v.Consumed = day.Consumed(v.Entry)
		v.Remaining = -v.Consumed
		return v
	}
	v.Goal = g
	v.DayNumber = plan.DayNumber(*g, today)
	v.TargetWeight = plan.TargetWeightForDay(*g, today)
	v.DailyLossGrams = plan.DailyLossGrams(*g)
	v.Budget = allowance.Compute(v.TargetWeight, &v.Entry)
	s := allowance.Progress(*g, snap.Entries, today)
	v.Summary = &s
	return v
}

// activeGoal is the goal the numbers are computed from, or nil while the
// plan is not active.
func activeGoal(snap store.Snapshot, today time.Time) *plan.Goal {
	switch dayzero.Resolve(snap.Goal, snap.Pending, today) {
	case dayzero.Active:
		if dayzero.ShouldPromote(snap.Pending, today) {
			g := dayzero.Promote(*snap.Pending)
			return &g
		}
		return snap.Goal
	}
	return nil
}
