package tsm

import "errors"

// PolicyOptions is the raw, unvalidated input for a RetentionPolicy.
type PolicyOptions struct {
	ArchiveName      string
	AnchorWeekday    Weekday
	DailyRetention   int
	WeeklyRetention  int
	MonthlyRetention int

	// DailyExpiry turns on expiry for the daily tier. It is off by default,
	// matching the historical behaviour where daily archives were never
	// removed by the rotation.
	DailyExpiry bool
}

// RetentionPolicy is a validated, immutable rotation policy.
type RetentionPolicy struct {
	archiveName string
	anchor      Weekday
	daily       int
	weekly      int
	monthly     int
	dailyExpiry bool
}

// NewRetentionPolicy validates opts and returns the policy.
// Every violated rule is reported; each one is a *ConfigError.
func NewRetentionPolicy(opts PolicyOptions) (RetentionPolicy, error) {
	var errs []error
	if opts.ArchiveName == "" {
		errs = append(errs, &ConfigError{Field: "archive_name", Reason: "must be specified"})
	}
	if !opts.AnchorWeekday.Valid() {
		errs = append(errs, &ConfigError{Field: "weekday", Reason: "must be >= 0 and <= 6"})
	}
	if opts.DailyRetention <= 0 {
		errs = append(errs, &ConfigError{Field: "num_days", Reason: "must be > 0"})
	}
	if opts.WeeklyRetention < 0 {
		errs = append(errs, &ConfigError{Field: "num_weeks", Reason: "must be >= 0"})
	}
	if opts.MonthlyRetention < 0 {
		errs = append(errs, &ConfigError{Field: "num_months", Reason: "must be >= 0"})
	}
	if len(errs) > 0 {
		return RetentionPolicy{}, errors.Join(errs...)
	}

	return RetentionPolicy{
		archiveName: opts.ArchiveName,
		anchor:      opts.AnchorWeekday,
		daily:       opts.DailyRetention,
		weekly:      opts.WeeklyRetention,
		monthly:     opts.MonthlyRetention,
		dailyExpiry: opts.DailyExpiry,
	}, nil
}

func (p RetentionPolicy) ArchiveName() string   { return p.archiveName }
func (p RetentionPolicy) AnchorWeekday() Weekday { return p.anchor }
func (p RetentionPolicy) DailyRetention() int    { return p.daily }
func (p RetentionPolicy) WeeklyRetention() int   { return p.weekly }
func (p RetentionPolicy) MonthlyRetention() int  { return p.monthly }
func (p RetentionPolicy) DailyExpiry() bool      { return p.dailyExpiry }
