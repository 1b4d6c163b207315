package tsm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// isoDateLayout is the layout used for dates embedded in archive names.
const isoDateLayout = "2006-01-02"

// Weekday identifies a day of the week using 0=Monday through 6=Sunday.
// This numbering is shared by policy validation and the tier triggers.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether w is within 0..6.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// weekdayFromTime converts a time.Weekday (0=Sunday) to a Weekday (0=Monday).
func weekdayFromTime(wd time.Weekday) Weekday {
	return Weekday((int(wd) + 6) % 7)
}

// ParseWeekday accepts a number 0..6 or an English day name ("fri", "Friday").
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		w := Weekday(n)
		if !w.Valid() {
			return 0, fmt.Errorf("weekday must be >= 0 and <= 6, got %d", n)
		}
		return w, nil
	}
	lower := strings.ToLower(s)
	if len(lower) >= 3 {
		for i, name := range weekdayNames {
			if strings.HasPrefix(strings.ToLower(name), lower) {
				return Weekday(i), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown weekday: %q", s)
}

// Date is a calendar day without a time-of-day component.
// Dates are comparable with ==.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the date for the given year, month and day.
// Out-of-range values are normalized the way time.Date normalizes them.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Year() int         { return d.year }
func (d Date) Month() time.Month { return d.month }
func (d Date) Day() int          { return d.day }
func (d Date) IsZero() bool      { return d == Date{} }
func (d Date) Weekday() Weekday  { return weekdayFromTime(d.time().Weekday()) }

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.time().Format(isoDateLayout)
}

func (d Date) time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}
