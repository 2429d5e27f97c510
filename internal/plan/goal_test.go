package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func sampleGoal() Goal {
	return Goal{
		StartWeight:   90,
		TargetWeight:  80,
		NumberOfDays:  50,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		WeightingTime: Yesterday,
	}
}

func TestTargetWeightOnStartDate(t *testing.T) {
	g := sampleGoal()
	assert.InDelta(t, 90.0, TargetWeightForDay(g, g.StartDate), epsilon)
}

func TestTargetWeightOnEndDate(t *testing.T) {
	for _, g := range []Goal{
		sampleGoal(),
		{StartWeight: 101.3, TargetWeight: 77.7, NumberOfDays: 97, StartDate: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{StartWeight: 60, TargetWeight: 59.9, NumberOfDays: 1, StartDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
	} {
		end := g.StartDate.AddDate(0, 0, g.NumberOfDays)
		assert.InDelta(t, g.TargetWeight, TargetWeightForDay(g, end), 1e-9)
	}
}

func TestTargetWeightDayTen(t *testing.T) {
	g := sampleGoal()
	assert.InDelta(t, 0.2, DailyLoss(g), epsilon)
	assert.InDelta(t, 88.0, TargetWeightForDay(g, g.StartDate.AddDate(0, 0, 10)), epsilon)
}

func TestTargetWeightTruncatesPartialDays(t *testing.T) {
	g := sampleGoal()
	lateEvening := time.Date(2025, 1, 3, 23, 59, 0, 0, time.UTC)
	assert.InDelta(t, 89.6, TargetWeightForDay(g, lateEvening), epsilon)
}

func TestTargetWeightMonotonic(t *testing.T) {
	g := sampleGoal()
	prev := TargetWeightForDay(g, g.StartDate)
	for i := 1; i <= g.NumberOfDays+10; i++ {
		cur := TargetWeightForDay(g, g.StartDate.AddDate(0, 0, i))
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestTargetWeightExtrapolatesPastEnd(t *testing.T) {
	g := sampleGoal()
	after := g.StartDate.AddDate(0, 0, g.NumberOfDays+5)
	assert.InDelta(t, 79.0, TargetWeightForDay(g, after), epsilon)
}

func TestDailyLossGramsAndWeekly(t *testing.T) {
	g := Goal{StartWeight: 85, TargetWeight: 80, NumberOfDays: 30}
	assert.Equal(t, 167, DailyLossGrams(g))
	assert.InDelta(t, 5.0/30*7, WeeklyLoss(g), epsilon)
}

func TestEndDate(t *testing.T) {
	g := sampleGoal()
	assert.Equal(t, time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC), EndDate(g))
}

func TestParseWeightingTime(t *testing.T) {
	wt, err := ParseWeightingTime(" Tonight ")
	require.NoError(t, err)
	assert.Equal(t, Tonight, wt)

	wt, err = ParseWeightingTime("yesterday")
	require.NoError(t, err)
	assert.Equal(t, Yesterday, wt)

	_, err = ParseWeightingTime("noon")
	assert.True(t, IsValidation(err))
}
