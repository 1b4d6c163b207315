package tsm

import (
	"testing"
	"time"
)

func TestDate_Weekday(t *testing.T) {
	tests := []struct {
		date Date
		want Weekday
	}{
		{NewDate(2012, time.February, 3), Friday},
		{NewDate(2012, time.March, 24), Saturday},
		{NewDate(2024, time.January, 15), Monday},
		{NewDate(2024, time.January, 21), Sunday},
	}
	for _, tt := range tests {
		if got := tt.date.Weekday(); got != tt.want {
			t.Errorf("%s.Weekday() = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestDate_AddDays(t *testing.T) {
	d := NewDate(2012, time.March, 1)
	if got, want := d.AddDays(-1), NewDate(2012, time.February, 29); got != want {
		t.Errorf("AddDays(-1) = %s, want %s", got, want)
	}
	if got, want := d.AddDays(-14), NewDate(2012, time.February, 16); got != want {
		t.Errorf("AddDays(-14) = %s, want %s", got, want)
	}
	if got, want := NewDate(2011, time.December, 31).AddDays(1), NewDate(2012, time.January, 1); got != want {
		t.Errorf("AddDays(1) = %s, want %s", got, want)
	}
}

func TestDateOf_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	got := DateOf(time.Date(2012, time.February, 3, 23, 59, 59, 0, loc))
	if want := NewDate(2012, time.February, 3); got != want {
		t.Errorf("DateOf() = %s, want %s", got, want)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2012-02-03")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d != NewDate(2012, time.February, 3) {
		t.Errorf("ParseDate() = %s, want 2012-02-03", d)
	}
	if d.String() != "2012-02-03" {
		t.Errorf("String() = %q, want %q", d.String(), "2012-02-03")
	}

	if _, err := ParseDate("03/02/2012"); err == nil {
		t.Error("ParseDate() expected error for non-ISO date")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in      string
		want    Weekday
		wantErr bool
	}{
		{in: "0", want: Monday},
		{in: "4", want: Friday},
		{in: "6", want: Sunday},
		{in: "fri", want: Friday},
		{in: "Thursday", want: Thursday},
		{in: "7", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "t", wantErr: true},
		{in: "someday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekday(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekday(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseWeekday(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
