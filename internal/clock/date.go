package clock

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a date expression relative to now.
// Supports: "today", "tomorrow", "yesterday", "monday", "next tuesday",
// "last friday", "2024-01-15", "Jan 2", "Jan 2 2006", "2 January 2006".
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "on "))

	switch s {
	case "", "today":
		return StartOfDay(now), nil
	case "tomorrow":
		return AddDays(now, 1), nil
	case "yesterday":
		return AddDays(now, -1), nil
	}

	if rest, ok := strings.CutPrefix(s, "last "); ok {
		if wd, ok := parseWeekday(rest); ok {
			return previousWeekday(now, wd), nil
		}
	}

	cleaned := strings.TrimPrefix(s, "next ")
	if wd, ok := parseWeekday(cleaned); ok {
		return nextWeekday(now, wd), nil
	}

	layouts := []string{
		"2006-01-02",
		"jan 2",
		"jan 2 2006",
		"january 2",
		"january 2 2006",
		"2 jan",
		"2 jan 2006",
		"2 january",
		"2 january 2006",
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			if !strings.Contains(layout, "2006") {
				t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			}
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Override builds the clock used when the user pins "today" with --date.
// The result keeps ticking so quick-add timestamps stay distinct.
func Override(base Clock, expr string) (Clock, error) {
	if strings.TrimSpace(expr) == "" {
		return base, nil
	}
	now := base.Now()
	target, err := ParseDate(expr, now)
	if err != nil {
		return nil, err
	}
	return Offset{Base: base, Days: DaysBetween(now, target)}, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdays[s]
	return wd, ok
}

// nextWeekday returns the next occurrence of wd after now.
// If now is that weekday, it returns the following week.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	today := StartOfDay(now)
	daysAhead := int(wd) - int(today.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return today.AddDate(0, 0, daysAhead)
}

func previousWeekday(now time.Time, wd time.Weekday) time.Time {
	today := StartOfDay(now)
	daysBack := int(today.Weekday()) - int(wd)
	if daysBack <= 0 {
		daysBack += 7
	}
	return today.AddDate(0, 0, -daysBack)
}
