package tsm

import (
	"fmt"
	"strings"
)

// Tier is a backup cadence. Each tier keeps its own retention count.
type Tier string

const (
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

// Tiers lists every tier in evaluation order.
var Tiers = []Tier{TierDaily, TierWeekly, TierMonthly}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierDaily, TierWeekly, TierMonthly:
		return true
	}
	return false
}

// ArchiveID names a single archive. It is derived from its three components
// and never stored on its own; two IDs are equal iff all components match.
type ArchiveID struct {
	Name string
	Tier Tier
	Date Date
}

// DeriveID returns the archive identifier for an archive name, tier and date.
func DeriveID(archiveName string, tier Tier, date Date) ArchiveID {
	return ArchiveID{Name: archiveName, Tier: tier, Date: date}
}

// String renders the identifier as {name}_{tier}_{YYYY-MM-DD}.
// Expiry relies on this being injective in (tier, date) for a fixed name:
// the archive to delete is found by re-deriving its name, not by lookup.
func (id ArchiveID) String() string {
	return fmt.Sprintf("%s_%s_%s", id.Name, id.Tier, id.Date)
}

// ParseArchiveID is the inverse of ArchiveID.String. The archive name may
// itself contain underscores; the tier and date are taken from the end.
func ParseArchiveID(s string) (ArchiveID, error) {
	dateSep := strings.LastIndexByte(s, '_')
	if dateSep < 0 {
		return ArchiveID{}, fmt.Errorf("malformed archive id: %q", s)
	}
	tierSep := strings.LastIndexByte(s[:dateSep], '_')
	if tierSep <= 0 {
		return ArchiveID{}, fmt.Errorf("malformed archive id: %q", s)
	}

	tier := Tier(s[tierSep+1 : dateSep])
	if !tier.Valid() {
		return ArchiveID{}, fmt.Errorf("unknown tier %q in archive id %q", tier, s)
	}
	date, err := ParseDate(s[dateSep+1:])
	if err != nil {
		return ArchiveID{}, fmt.Errorf("archive id %q: %w", s, err)
	}

	return ArchiveID{Name: s[:tierSep], Tier: tier, Date: date}, nil
}
