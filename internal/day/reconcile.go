package day

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/emilstricker/regnemetoden/internal/clock"
)

// ErrIndexOutOfRange is returned when RemoveFood gets an index that does not
// exist in the displayed list.
var ErrIndexOutOfRange = errors.New("food entry index out of range")

// base returns a copy of current, or an empty entry for date.
func base(current *Entry, date time.Time) Entry {
	if current == nil {
		return Entry{Date: clock.StartOfDay(date), FoodEntries: []FoodEntry{}}
	}
	e := Clone(*current)
	e.Date = clock.StartOfDay(date)
	return e
}

// ApplyWeight sets the morning weight, keeping the food log untouched.
func ApplyWeight(current *Entry, date time.Time, weight float64) Entry {
	e := base(current, date)
	e.Weight = &weight
	return e
}

// AppendFood adds one food entry stamped at. If another entry of the same
// day already carries that exact time, the stamp is moved forward one
// millisecond at a time until it is unique.
func AppendFood(current *Entry, date time.Time, amount float64, at time.Time) Entry {
	e := base(current, date)
	at = at.Truncate(time.Millisecond)
	for taken(e.FoodEntries, at) {
		at = at.Add(time.Millisecond)
	}
	e.FoodEntries = append(e.FoodEntries, FoodEntry{Amount: amount, Time: at})
	return e
}

func taken(entries []FoodEntry, at time.Time) bool {
	for _, f := range entries {
		if f.Time.Equal(at) {
			return true
		}
	}
	return false
}

// RemoveFood removes the entry at index in SortedFood order (newest first),
// which is the order lists are shown in. The remaining entries keep their
// insertion order.
func RemoveFood(current Entry, index int) (Entry, error) {
	order := displayOrder(current.FoodEntries)
	if index < 0 || index >= len(order) {
		return Entry{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(order))
	}

	victim := order[index]
	e := Clone(current)
	e.FoodEntries = append(e.FoodEntries[:victim:victim], e.FoodEntries[victim+1:]...)
	return e, nil
}

// SortedFood returns the food entries newest first. Ties keep insertion order.
func SortedFood(e Entry) []FoodEntry {
	order := displayOrder(e.FoodEntries)
	out := make([]FoodEntry, len(order))
	for i, idx := range order {
		out[i] = e.FoodEntries[idx]
	}
	return out
}

// displayOrder maps display positions to insertion positions.
func displayOrder(entries []FoodEntry) []int {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return entries[order[i]].Time.After(entries[order[j]].Time)
	})
	return order
}
