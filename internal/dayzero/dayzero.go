// Package dayzero implements the deferred start of a plan created with the
// "tonight" weighting time. Such a plan sits in the pending slot on its start
// day until the evening weigh-in is captured, and is promoted to the active
// slot on the next day.
package dayzero

import (
	"fmt"
	"math"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
)

// SuggestThreshold is how far (kg) the captured weight may be off the
// estimated start weight before an update of the plan is suggested.
const SuggestThreshold = 0.5

// State is where a user is in the plan lifecycle.
type State int

const (
	NoGoal State = iota
	PendingTonight
	WeightCaptured
	Active
)

func (s State) String() string {
	switch s {
	case NoGoal:
		return "no-goal"
	case PendingTonight:
		return "pending-tonight"
	case WeightCaptured:
		return "weight-captured"
	case Active:
		return "active"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText makes State readable in JSON views.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsDayZero reports whether today is the start day of a pending plan.
func IsDayZero(pending *plan.Goal, today time.Time) bool {
	return pending != nil && pending.WeightingTime == plan.Tonight && clock.SameDay(pending.StartDate, today)
}

// Resolve picks the state to show. A pending plan takes precedence over an
// older active one. A pending plan that is due for promotion already counts
// as active.
func Resolve(active, pending *plan.Goal, today time.Time) State {
	switch {
	case ShouldPromote(pending, today):
		return Active
	case pending != nil && pending.IsWeightSaved:
		return WeightCaptured
	case pending != nil:
		return PendingTonight
	case active != nil:
		return Active
	}
	return NoGoal
}

// Suggestion proposes replacing the estimated start weight with the one
// actually measured on day zero.
type Suggestion struct {
	Estimated float64 `json:"estimated"`
	Measured  float64 `json:"measured"`
}

// Difference is measured minus estimated, in kg.
func (s Suggestion) Difference() float64 {
	return s.Measured - s.Estimated
}

// Capture is the outcome of weighing in on day zero.
type Capture struct {
	Pending    plan.Goal   `json:"pending"`
	Entry      day.Entry   `json:"entry"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

// CaptureWeight records the evening weight on a pending plan. The weight is also
// written to today's entry, keeping any food already logged there.
func CaptureWeight(pending plan.Goal, current *day.Entry, today time.Time, weight float64) (Capture, error) {
	if err := plan.ValidateWeight(weight); err != nil {
		return Capture{}, err
	}

	out := Capture{
		Pending: pending,
		Entry:   day.ApplyWeight(current, today, weight),
	}
	out.Pending.IsWeightSaved = true

	if math.Abs(weight-pending.StartWeight) > SuggestThreshold {
		out.Suggestion = &Suggestion{Estimated: pending.StartWeight, Measured: weight}
	}
	return out, nil
}

// UpdateStartWeight applies an accepted suggestion. The target must stay
// below the new start weight.
func UpdateStartWeight(pending plan.Goal, weight float64) (plan.Goal, error) {
	if err := plan.ValidateWeight(weight); err != nil {
		return plan.Goal{}, err
	}
	pending.StartWeight = weight
	if err := plan.Validate(pending); err != nil {
		return plan.Goal{}, err
	}
	return pending, nil
}

// ShouldPromote is true once the day-zero weight is saved and the start day
// has passed. It is never true on day zero itself.
func ShouldPromote(pending *plan.Goal, today time.Time) bool {
	if pending == nil || !pending.IsWeightSaved {
		return false
	}
	return clock.DaysBetween(pending.StartDate, today) > 0
}

// Promote turns a pending plan into the definitive one. The start date stays
// on day zero so the plan's day numbers are unchanged.
func Promote(pending plan.Goal) plan.Goal {
	g := pending
	g.IsWeightSaved = false
	g.Baseline = nil
	return g
}

// Baseline copies the start day's entry for a new pending plan. A nil
// current entry records that the day had none.
func Baseline(current *day.Entry) *day.Entry {
	if current == nil {
		return nil
	}
	b := day.Clone(*current)
	return &b
}

// NeedsRebase is true for a pending plan whose day zero passed without a
// weigh-in.
func NeedsRebase(pending *plan.Goal, today time.Time) bool {
	return pending != nil && !pending.IsWeightSaved && clock.DaysBetween(pending.StartDate, today) > 0
}

// Rebase moves an unweighed pending plan's day zero to today and takes
// today's entry, current, as the new baseline.
func Rebase(pending plan.Goal, current *day.Entry, today time.Time) plan.Goal {
	pending.StartDate = clock.StartOfDay(today)
	pending.Baseline = Baseline(current)
	return pending
}
