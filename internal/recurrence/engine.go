// Package recurrence expands recurring-booking rules into the calendar days
// a booking series occupies.
package recurrence

import (
	"errors"

	"github.com/example/booking-portal/internal/availability"
)

// Frequency represents supported recurrence cadences.
type Frequency string

const (
	// FrequencyDaily repeats every Interval days.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly repeats every Interval weeks on the start date's weekday.
	FrequencyWeekly Frequency = "weekly"
)

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// ErrInvalidInterval indicates a non-positive repeat interval.
var ErrInvalidInterval = errors.New("recurrence: interval must be at least 1")

// ErrUnboundedRule indicates a rule with neither a count nor an until date.
var ErrUnboundedRule = errors.New("recurrence: rule requires a count or an until date")

// ErrConflictingBounds indicates a rule carrying both a count and an until date.
var ErrConflictingBounds = errors.New("recurrence: count and until are mutually exclusive")

// ErrInvalidUntil indicates an until date that is malformed or precedes the start.
var ErrInvalidUntil = errors.New("recurrence: until must be a valid date on or after the start")

// ErrTooManyOccurrences indicates the rule expands past the occurrence limit.
var ErrTooManyOccurrences = errors.New("recurrence: rule expands beyond the occurrence limit")

// Rule describes how a booking repeats. Exactly one of Count and Until bounds
// the series; Count includes the first occurrence and Until is inclusive.
type Rule struct {
	Frequency Frequency
	Interval  int
	Count     int
	Until     string
}

// IsZero reports whether no recurrence was requested.
func (r Rule) IsZero() bool {
	return r == Rule{}
}

func (r Rule) stepDays() int {
	if r.Frequency == FrequencyWeekly {
		return 7 * r.Interval
	}
	return r.Interval
}

// Validate checks the rule shape against the occurrence limit.
func (r Rule) Validate(max int) error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly:
	default:
		return ErrInvalidFrequency
	}
	if r.Interval < 1 {
		return ErrInvalidInterval
	}
	if r.Count == 0 && r.Until == "" {
		return ErrUnboundedRule
	}
	if r.Count != 0 && r.Until != "" {
		return ErrConflictingBounds
	}
	if r.Count < 0 || (max > 0 && r.Count > max) {
		return ErrTooManyOccurrences
	}
	if r.Until != "" {
		if _, err := availability.ParseDate(r.Until); err != nil {
			return ErrInvalidUntil
		}
	}
	return nil
}

// Expand generates the occurrence dates for a series starting on start
// (inclusive), in "YYYY-MM-DD" form and ascending order. max caps the series
// length; an until-bounded rule that would exceed it fails rather than
// truncating silently.
func Expand(rule Rule, start string, max int) ([]string, error) {
	if err := rule.Validate(max); err != nil {
		return nil, err
	}
	first, err := availability.ParseDate(start)
	if err != nil {
		return nil, err
	}

	step := rule.stepDays()

	if rule.Count > 0 {
		dates := make([]string, 0, rule.Count)
		for i := 0; i < rule.Count; i++ {
			dates = append(dates, availability.FormatDate(first.AddDate(0, 0, i*step)))
		}
		return dates, nil
	}

	until, err := availability.ParseDate(rule.Until)
	if err != nil {
		return nil, ErrInvalidUntil
	}
	if until.Before(first) {
		return nil, ErrInvalidUntil
	}

	var dates []string
	for day := first; !day.After(until); day = day.AddDate(0, 0, step) {
		if max > 0 && len(dates) == max {
			return nil, ErrTooManyOccurrences
		}
		dates = append(dates, availability.FormatDate(day))
	}
	return dates, nil
}
