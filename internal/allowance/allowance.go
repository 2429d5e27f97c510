package allowance

import (
	"math"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
)

// Budget is what the day looks like against the plan, all in grams.
type Budget struct {
	Consumed  float64 `json:"consumed"`
	Allowance float64 `json:"allowance"`
	Remaining float64 `json:"remaining"`
	Progress  float64 `json:"progress"`
}

// Compute derives today's gram budget from the projected target weight and
// the day's entry. Without a morning weight the allowance is 0. Remaining is
// never clamped, so overeating shows as a negative number.
func Compute(todayTarget float64, entry *day.Entry) Budget {
	var b Budget
	if entry == nil {
		return b
	}

	b.Consumed = day.Consumed(*entry)
	if entry.Weight != nil {
		b.Allowance = math.Round((todayTarget - *entry.Weight) * 1000)
	}
	b.Remaining = b.Allowance - b.Consumed
	b.Progress = ratio(b.Consumed, b.Allowance)
	return b
}

// ratio is min(1, consumed/allowance), or 0 when there is no allowance. It
// goes negative when the allowance or the day's net food is below zero;
// renderers clamp it.
func ratio(consumed, allowance float64) float64 {
	if allowance == 0 {
		return 0
	}
	return math.Min(1, consumed/allowance)
}

// Summary is the plan-level progress shown next to the daily budget.
type Summary struct {
	LatestWeight    *float64 `json:"latestWeight,omitempty"`
	TotalLoss       float64  `json:"totalLoss"`
	RemainingWeight float64  `json:"remainingWeight"`
	DayNumber       int      `json:"dayNumber"`
	DaysLeft        int      `json:"daysLeft"`
}

// Progress summarises the plan as of today using the most recent morning
// weight on or after the start date. With no weigh-in yet, the start weight
// stands in.
func Progress(g plan.Goal, entries []day.Entry, today time.Time) Summary {
	s := Summary{
		DayNumber: plan.DayNumber(g, today),
		DaysLeft:  clock.DaysBetween(today, plan.EndDate(g)),
	}
	if s.DaysLeft < 0 {
		s.DaysLeft = 0
	}

	latest := g.StartWeight
	var latestDate time.Time
	start := clock.StartOfDay(g.StartDate)
	end := clock.StartOfDay(today)
	for _, e := range entries {
		if e.Weight == nil || e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		if s.LatestWeight == nil || e.Date.After(latestDate) {
			w := *e.Weight
			s.LatestWeight = &w
			latest = w
			latestDate = e.Date
		}
	}

	s.TotalLoss = round1(g.StartWeight - latest)
	s.RemainingWeight = round1(latest - g.TargetWeight)
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
