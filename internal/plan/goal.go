package plan

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
	"github.com/emilstricker/regnemetoden/internal/day"
)

// WeightingTime says when the first weigh-in of a plan happens.
type WeightingTime string

const (
	// Tonight defers activation: the user weighs in on the evening of the
	// start day and the plan becomes active the next day.
	Tonight WeightingTime = "tonight"
	// Yesterday activates immediately: the weigh-in already happened the
	// previous evening.
	Yesterday WeightingTime = "yesterday"
)

// ParseWeightingTime accepts "tonight" or "yesterday" in any case.
func ParseWeightingTime(s string) (WeightingTime, error) {
	switch WeightingTime(strings.ToLower(strings.TrimSpace(s))) {
	case Tonight:
		return Tonight, nil
	case Yesterday:
		return Yesterday, nil
	}
	return "", &ValidationError{Field: "weightingTime", Message: fmt.Sprintf("weighting time must be tonight or yesterday, got %q", s)}
}

// Goal is a weight-loss plan. Only one is active per user; a second one may
// exist in the pending slot while its day-zero weigh-in is outstanding.
type Goal struct {
	StartWeight   float64       `json:"startWeight" bson:"startWeight" validate:"gt=0"`
	TargetWeight  float64       `json:"targetWeight" bson:"targetWeight" validate:"gt=0,ltfield=StartWeight"`
	NumberOfDays  int           `json:"numberOfDays" bson:"numberOfDays" validate:"min=1"`
	StartDate     time.Time     `json:"startDate" bson:"startDate"`
	WeightingTime WeightingTime `json:"weightingTime" bson:"weightingTime" validate:"oneof=tonight yesterday"`
	IsWeightSaved bool          `json:"isWeightSaved" bson:"isWeightSaved"`
	UpdatedAt     time.Time     `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	// Baseline is the start day's entry as it stood before a pending plan
	// was set up, nil when there was none. Going back restores it.
	Baseline      *day.Entry    `json:"baseline,omitempty" bson:"baseline,omitempty"`
}

// TargetWeightForDay interpolates linearly from StartWeight on the start
// date to TargetWeight after NumberOfDays days. Days past the end keep
// extrapolating; nothing is clamped. The goal must have passed Validate.
func TargetWeightForDay(g Goal, day time.Time) float64 {
	return g.StartWeight - DailyLoss(g)*float64(DayNumber(g, day))
}

// DayNumber is the number of whole calendar days since the start date.
func DayNumber(g Goal, day time.Time) int {
	return clock.DaysBetween(g.StartDate, day)
}

// DailyLoss is the planned loss per day in kg.
func DailyLoss(g Goal) float64 {
	return (g.StartWeight - g.TargetWeight) / float64(g.NumberOfDays)
}

// DailyLossGrams is the planned daily deficit rounded to whole grams.
func DailyLossGrams(g Goal) int {
	return int(math.Round((g.StartWeight - g.TargetWeight) * 1000 / float64(g.NumberOfDays)))
}

// WeeklyLoss is the planned loss per week in kg.
func WeeklyLoss(g Goal) float64 {
	return DailyLoss(g) * 7
}

// EndDate is the day on which the target weight is due.
func EndDate(g Goal) time.Time {
	return clock.AddDays(g.StartDate, g.NumberOfDays)
}
