// Package availability implements the time arithmetic behind room booking:
// clock and date parsing plus overlap detection over half-open intervals.
package availability

import (
	"fmt"
	"time"
)

const (
	// MinutesPerDay bounds a clock value; 24:00 is only valid as an end.
	MinutesPerDay = 24 * 60

	dateLayout = "2006-01-02"
)

// ParseClock converts a zero-padded "HH:MM" string to minutes since
// midnight. allowMidnightEnd permits "24:00" so an interval may run to the
// end of the day.
func ParseClock(value string, allowMidnightEnd bool) (int, error) {
	if len(value) != 5 || value[2] != ':' ||
		!isDigit(value[0]) || !isDigit(value[1]) || !isDigit(value[3]) || !isDigit(value[4]) {
		return 0, fmt.Errorf("availability: clock value %q is not in HH:MM form", value)
	}
	hours := int(value[0]-'0')*10 + int(value[1]-'0')
	minutes := int(value[3]-'0')*10 + int(value[4]-'0')
	if minutes > 59 {
		return 0, fmt.Errorf("availability: clock value %q is out of range", value)
	}
	total := hours*60 + minutes
	limit := MinutesPerDay
	if !allowMidnightEnd {
		limit = MinutesPerDay - 1
	}
	if total > limit {
		return 0, fmt.Errorf("availability: clock value %q is out of range", value)
	}
	return total, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// FormatClock renders minutes since midnight back into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates a calendar day in "YYYY-MM-DD" form and returns it
// normalized to midnight UTC.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(dateLayout, value)
	if err != nil || len(value) != len(dateLayout) {
		return time.Time{}, fmt.Errorf("availability: date value %q is not in YYYY-MM-DD form", value)
	}
	return day, nil
}

// FormatDate renders a time as its calendar day in "YYYY-MM-DD" form.
func FormatDate(day time.Time) string {
	return day.Format(dateLayout)
}

// Interval is a half-open [Start,End) range of minutes within one day.
type Interval struct {
	Start int
	End   int
}

// NewInterval parses the two clock strings into an interval. The end may be
// "24:00"; ordering is not checked here so callers can report a precise
// validation message.
func NewInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start, false)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end, true)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// Valid reports whether the interval has positive length.
func (i Interval) Valid() bool {
	return i.Start < i.End
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching boundaries (one ending exactly where the other starts) do not
// overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether the instant at minute m falls inside the interval.
func (i Interval) Contains(m int) bool {
	return m >= i.Start && m < i.End
}

// String renders the interval as "HH:MM-HH:MM".
func (i Interval) String() string {
	return FormatClock(i.Start) + "-" + FormatClock(i.End)
}

// BookedSlot is a confirmed reservation on the room and day under test.
type BookedSlot struct {
	BookingID string
	Interval  Interval
}

// Conflict names an existing slot that collides with a candidate interval.
type Conflict struct {
	BookingID string
	Interval  Interval
}

// FindConflicts scans the booked slots for overlaps with the candidate
// interval. A slot whose BookingID equals excludeBookingID is skipped exactly
// once by this filter, so editing a booking never collides with itself.
func FindConflicts(candidate Interval, excludeBookingID string, existing []BookedSlot) []Conflict {
	var conflicts []Conflict
	for _, slot := range existing {
		if excludeBookingID != "" && slot.BookingID == excludeBookingID {
			continue
		}
		if candidate.Overlaps(slot.Interval) {
			conflicts = append(conflicts, Conflict{BookingID: slot.BookingID, Interval: slot.Interval})
		}
	}
	return conflicts
}
