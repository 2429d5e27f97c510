package day

import (
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
)

// KeyLayout formats the identity key of a day entry.
const KeyLayout = "2006-01-02"

// FoodEntry is one logged amount in grams. Negative amounts are corrections.
type FoodEntry struct {
	Amount float64   `json:"amount" bson:"amount"`
	Time   time.Time `json:"time" bson:"time"`
}

// Entry is the record of a single calendar day: the morning weight and
// everything eaten.
type Entry struct {
	Date        time.Time   `json:"date" bson:"date"`
	Weight      *float64    `json:"weight,omitempty" bson:"weight,omitempty"`
	FoodEntries []FoodEntry `json:"foodEntries" bson:"foodEntries"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Key returns the storage key for the day containing t.
func Key(t time.Time) string {
	return clock.StartOfDay(t).Format(KeyLayout)
}

// Key returns the entry's storage key.
func (e Entry) Key() string {
	return Key(e.Date)
}

// HasWeight reports whether the morning weight has been logged.
func (e Entry) HasWeight() bool {
	return e.Weight != nil
}

// Find returns the entry for the given day, or nil.
func Find(entries []Entry, date time.Time) *Entry {
	key := Key(date)
	for i := range entries {
		if entries[i].Key() == key {
			e := Clone(entries[i])
			return &e
		}
	}
	return nil
}

// Consumed sums the signed food amounts of an entry.
func Consumed(e Entry) float64 {
	total := 0.0
	for _, f := range e.FoodEntries {
		total += f.Amount
	}
	return total
}

// Clone deep-copies an entry so reconciled results never alias the input.
func Clone(e Entry) Entry {
	out := e
	if e.Weight != nil {
		w := *e.Weight
		out.Weight = &w
	}
	out.FoodEntries = append([]FoodEntry{}, e.FoodEntries...)
	return out
}

// Weight is a helper for building entries with a weight.
func Weight(w float64) *float64 {
	return &w
}
