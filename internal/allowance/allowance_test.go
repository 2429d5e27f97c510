package allowance

import (
	"testing"
	"time"

	"github.com/emilstricker/regnemetoden/internal/day"
	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(weight *float64, amounts ...float64) *day.Entry {
	e := &day.Entry{Weight: weight, FoodEntries: []day.FoodEntry{}}
	for i, a := range amounts {
		e.FoodEntries = append(e.FoodEntries, day.FoodEntry{
			Amount: a,
			Time:   time.Date(2025, 1, 1, 8, i, 0, 0, time.UTC),
		})
	}
	return e
}

func TestComputeExample(t *testing.T) {
	b := Compute(88.0, entry(day.Weight(87.6), 100, 50))

	assert.Equal(t, 400.0, b.Allowance)
	assert.Equal(t, 150.0, b.Consumed)
	assert.Equal(t, 250.0, b.Remaining)
	assert.InDelta(t, 0.375, b.Progress, 1e-9)
}

func TestComputeWithoutWeight(t *testing.T) {
	b := Compute(88.0, entry(nil, 100))

	assert.Equal(t, 0.0, b.Allowance)
	assert.Equal(t, 100.0, b.Consumed)
	assert.Equal(t, -100.0, b.Remaining)
	assert.Equal(t, 0.0, b.Progress)
}

func TestComputeNilEntry(t *testing.T) {
	assert.Equal(t, Budget{}, Compute(88.0, nil))
}

func TestComputeOverBudget(t *testing.T) {
	b := Compute(88.0, entry(day.Weight(87.8), 150, 100))

	assert.Equal(t, 200.0, b.Allowance)
	assert.Equal(t, -50.0, b.Remaining)
	assert.Equal(t, 1.0, b.Progress)
}

func TestComputeWeightAboveTarget(t *testing.T) {
	b := Compute(88.0, entry(day.Weight(88.3), 20))

	assert.Equal(t, -300.0, b.Allowance)
	assert.Equal(t, -320.0, b.Remaining)
	assert.InDelta(t, 20.0/-300.0, b.Progress, 1e-9)
}

func TestComputeCorrectionsAreSigned(t *testing.T) {
	b := Compute(88.0, entry(day.Weight(87.5), 100, -40))

	assert.Equal(t, 60.0, b.Consumed)
	assert.Equal(t, 440.0, b.Remaining)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name      string
		consumed  float64
		allowance float64
		want      float64
	}{
		{"no allowance", 100, 0, 0},
		{"half", 200, 400, 0.5},
		{"capped", 500, 400, 1},
		{"net negative food", -40, 400, -0.1},
		{"negative allowance", 30, -300, -0.1},
		{"both negative", -600, -300, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ratio(tt.consumed, tt.allowance), 1e-9)
		})
	}
}

func TestComputeRoundsAllowance(t *testing.T) {
	b := Compute(88.12345, entry(day.Weight(87.5)))

	assert.Equal(t, 623.0, b.Allowance)
}

func TestProgress(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	g := plan.Goal{StartWeight: 90, TargetWeight: 80, NumberOfDays: 50, StartDate: start, WeightingTime: plan.Yesterday}
	entries := []day.Entry{
		{Date: start.AddDate(0, 0, -2), Weight: day.Weight(95)},
		{Date: start.AddDate(0, 0, 3), Weight: day.Weight(88.7)},
		{Date: start.AddDate(0, 0, 5), Weight: day.Weight(88.2)},
		{Date: start.AddDate(0, 0, 6)},
		{Date: start.AddDate(0, 0, 30), Weight: day.Weight(70)},
	}

	s := Progress(g, entries, start.AddDate(0, 0, 10))

	require.NotNil(t, s.LatestWeight)
	assert.Equal(t, 88.2, *s.LatestWeight)
	assert.Equal(t, 1.8, s.TotalLoss)
	assert.Equal(t, 8.2, s.RemainingWeight)
	assert.Equal(t, 10, s.DayNumber)
	assert.Equal(t, 40, s.DaysLeft)
}

func TestProgressWithoutWeighIns(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	g := plan.Goal{StartWeight: 90, TargetWeight: 80, NumberOfDays: 5, StartDate: start, WeightingTime: plan.Yesterday}

	s := Progress(g, nil, start.AddDate(0, 0, 9))

	assert.Nil(t, s.LatestWeight)
	assert.Equal(t, 0.0, s.TotalLoss)
	assert.Equal(t, 10.0, s.RemainingWeight)
	assert.Equal(t, 0, s.DaysLeft)
}
