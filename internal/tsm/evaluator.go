package tsm

// TierDecision is the outcome of evaluating one tier for one date.
// Expire is only set together with Create; the engine never checks that the
// archive to expire actually exists.
type TierDecision struct {
	Tier         Tier
	ShouldCreate bool
	Create       *ArchiveID
	Expire       *ArchiveID
}

// Plan holds the decisions for every tier, in daily, weekly, monthly order.
type Plan []TierDecision

// Evaluate decides every tier for today.
func Evaluate(p RetentionPolicy, today Date) Plan {
	return Plan{
		EvaluateDaily(p, today),
		EvaluateWeekly(p, today),
		EvaluateMonthly(p, today),
	}
}

// EvaluateDaily always creates today's daily archive. An expiry is only
// computed when the policy enables daily expiry.
func EvaluateDaily(p RetentionPolicy, today Date) TierDecision {
	d := create(p, TierDaily, today)
	if p.dailyExpiry {
		expire := DeriveID(p.archiveName, TierDaily, today.AddDays(-p.daily))
		d.Expire = &expire
	}
	return d
}

// EvaluateWeekly creates a weekly archive on the anchor weekday and expires
// the one made exactly WeeklyRetention weeks earlier.
func EvaluateWeekly(p RetentionPolicy, today Date) TierDecision {
	if p.weekly <= 0 || today.Weekday() != p.anchor {
		return TierDecision{Tier: TierWeekly}
	}
	d := create(p, TierWeekly, today)
	expire := DeriveID(p.archiveName, TierWeekly, today.AddDays(-7*p.weekly))
	d.Expire = &expire
	return d
}

// EvaluateMonthly creates a monthly archive on the first anchor weekday of
// the month and expires the one made MonthlyRetention such days earlier.
func EvaluateMonthly(p RetentionPolicy, today Date) TierDecision {
	if p.monthly <= 0 || !isFirstAnchor(today, p.anchor) {
		return TierDecision{Tier: TierMonthly}
	}
	d := create(p, TierMonthly, today)
	expire := DeriveID(p.archiveName, TierMonthly, AnchorSubtract(today, p.monthly))
	d.Expire = &expire
	return d
}

// AnchorSubtract walks back from d one week at a time and returns the n-th
// landing whose day of month is at most 7. When d is the first occurrence
// of its weekday in its month, the result is the first occurrence of that
// weekday n months earlier. n < 1 returns d.
func AnchorSubtract(d Date, n int) Date {
	for counted := 0; counted < n; {
		d = d.AddDays(-7)
		if d.Day() <= 7 {
			counted++
		}
	}
	return d
}

func isFirstAnchor(d Date, anchor Weekday) bool {
	return d.Weekday() == anchor && d.Day() <= 7
}

func create(p RetentionPolicy, tier Tier, today Date) TierDecision {
	id := DeriveID(p.archiveName, tier, today)
	return TierDecision{Tier: tier, ShouldCreate: true, Create: &id}
}
