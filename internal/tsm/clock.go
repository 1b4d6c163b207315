package tsm

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. "Today" for a rotation is always taken
// from a Clock so tests can pin the calendar.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual local time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Today returns the local calendar day of c.
func Today(c Clock) Date {
	return DateOf(c.Now())
}

// IDGenerator produces unique run identifiers.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
