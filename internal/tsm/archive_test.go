package tsm

import (
	"testing"
	"time"
)

func TestDeriveID(t *testing.T) {
	d := NewDate(2012, time.March, 24)

	tests := []struct {
		tier Tier
		want string
	}{
		{TierDaily, "foo_daily_2012-03-24"},
		{TierWeekly, "foo_weekly_2012-03-24"},
		{TierMonthly, "foo_monthly_2012-03-24"},
	}

	for _, tt := range tests {
		if got := DeriveID("foo", tt.tier, d).String(); got != tt.want {
			t.Errorf("DeriveID(foo, %s, %s) = %q, want %q", tt.tier, d, got, tt.want)
		}
	}
}

func TestDeriveID_Injective(t *testing.T) {
	seen := make(map[string]ArchiveID)
	start := NewDate(2011, time.December, 1)
	for _, tier := range Tiers {
		for i := 0; i < 800; i++ {
			id := DeriveID("foo_bar", tier, start.AddDays(i))
			s := id.String()
			if prev, ok := seen[s]; ok {
				t.Fatalf("%+v and %+v both derive %q", prev, id, s)
			}
			seen[s] = id
		}
	}
}

func TestParseArchiveID(t *testing.T) {
	t.Run("round trips derived ids", func(t *testing.T) {
		for _, name := range []string{"foo", "host_home", "a_weekly_b"} {
			for _, tier := range Tiers {
				want := DeriveID(name, tier, NewDate(2012, time.February, 3))
				got, err := ParseArchiveID(want.String())
				if err != nil {
					t.Fatalf("ParseArchiveID(%q) error = %v", want, err)
				}
				if got != want {
					t.Errorf("ParseArchiveID(%q) = %+v, want %+v", want, got, want)
				}
			}
		}
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		for _, s := range []string{
			"",
			"foo",
			"foo_2012-02-03",
			"_daily_2012-02-03",
			"foo_hourly_2012-02-03",
			"foo_daily_2012-2-3",
			"foo_daily_yesterday",
		} {
			if _, err := ParseArchiveID(s); err == nil {
				t.Errorf("ParseArchiveID(%q) expected error", s)
			}
		}
	})
}
