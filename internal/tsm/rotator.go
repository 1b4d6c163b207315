package tsm

import (
	"context"
	"errors"
	"fmt"

	"tsm-go/internal/model"
)

// ActionKind says whether an action creates or expires an archive.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionExpire ActionKind = "expire"
)

// ActionStatus is the outcome of one store call.
type ActionStatus string

const (
	StatusOK      ActionStatus = "ok"
	StatusFailed  ActionStatus = "failed"
	StatusSkipped ActionStatus = "skipped" // expire not attempted because the create failed
)

// ActionResult is the outcome of one create or expire.
type ActionResult struct {
	Tier    Tier
	Kind    ActionKind
	Archive ArchiveID
	Status  ActionStatus
	Err     error
}

// RunReport describes a completed rotation.
type RunReport struct {
	Date    Date
	Plan    Plan
	Results []ActionResult
}

// Failed returns the results whose store call failed.
func (r *RunReport) Failed() []ActionResult {
	var failed []ActionResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Rotator applies a retention policy to an archive store.
type Rotator struct {
	policy   RetentionPolicy
	store    ArchiveStore
	database Database
	logger   Logger
	clock    Clock
}

// NewRotator creates a Rotator. database may be nil, in which case nothing
// is recorded.
func NewRotator(policy RetentionPolicy, store ArchiveStore, database Database, logger Logger, clock Clock) *Rotator {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Rotator{
		policy:   policy,
		store:    store,
		database: database,
		logger:   logger,
		clock:    clock,
	}
}

// Policy returns the policy the rotator applies.
func (r *Rotator) Policy() RetentionPolicy { return r.policy }

// Run evaluates the policy for today and applies the resulting plan.
// runID links recorded actions to a ledger run; it is ignored when the
// rotator has no database.
//
// Tiers are processed daily, weekly, monthly. Within a tier the new archive
// is created before the old one is expired, and a failed create skips the
// expire so an archive is never removed before its replacement exists.
// Store failures do not stop the run; they are returned joined together as
// *ArchiveError values alongside the full report.
func (r *Rotator) Run(ctx context.Context, runID int64, today Date, paths []string) (*RunReport, error) {
	plan := Evaluate(r.policy, today)
	report := &RunReport{Date: today, Plan: plan}

	r.logger.Info("rotation started", "date", today.String(), "archive_name", r.policy.ArchiveName())

	var errs []error
	for _, decision := range plan {
		if !decision.ShouldCreate {
			r.logger.Debug("tier not due", "tier", string(decision.Tier))
			continue
		}

		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("rotation interrupted before %s tier: %w", decision.Tier, err))
			break
		}

		created := r.apply(ctx, runID, report, decision.Tier, ActionCreate, *decision.Create, paths)
		if created != nil {
			errs = append(errs, created)
		}

		if decision.Expire == nil {
			continue
		}
		if created != nil {
			r.skip(runID, report, decision.Tier, *decision.Expire)
			continue
		}
		if err := r.apply(ctx, runID, report, decision.Tier, ActionExpire, *decision.Expire, nil); err != nil {
			errs = append(errs, err)
		}
	}

	r.logger.Info("rotation finished", "date", today.String(), "actions", len(report.Results), "failures", len(report.Failed()))
	return report, errors.Join(errs...)
}

// apply performs one store call and records its result.
func (r *Rotator) apply(ctx context.Context, runID int64, report *RunReport, tier Tier, kind ActionKind, id ArchiveID, paths []string) error {
	var err error
	switch kind {
	case ActionCreate:
		err = r.store.Create(ctx, id, paths)
	case ActionExpire:
		err = r.store.Delete(ctx, id)
	}

	result := ActionResult{Tier: tier, Kind: kind, Archive: id, Status: StatusOK}
	if err != nil {
		op := "create"
		if kind == ActionExpire {
			op = "delete"
		}
		err = &ArchiveError{Op: op, Archive: id.String(), Err: err}
		result.Status = StatusFailed
		result.Err = err
		r.logger.Error("archive action failed", "tier", string(tier), "action", string(kind), "archive", id.String(), "error", err)
	} else {
		r.logger.Info("archive action done", "tier", string(tier), "action", string(kind), "archive", id.String())
	}

	r.record(runID, result)
	report.Results = append(report.Results, result)
	return err
}

func (r *Rotator) skip(runID int64, report *RunReport, tier Tier, id ArchiveID) {
	result := ActionResult{Tier: tier, Kind: ActionExpire, Archive: id, Status: StatusSkipped}
	r.logger.Warn("expire skipped because create failed", "tier", string(tier), "archive", id.String())
	r.record(runID, result)
	report.Results = append(report.Results, result)
}

// record writes a result to the ledger. Ledger failures are logged, not
// returned: the archive action already happened.
func (r *Rotator) record(runID int64, result ActionResult) {
	if r.database == nil || runID == 0 {
		return
	}
	action := &model.Action{
		RunID:     runID,
		Tier:      string(result.Tier),
		Kind:      string(result.Kind),
		Archive:   result.Archive.String(),
		Status:    string(result.Status),
		CreatedAt: r.clock.Now().UTC(),
	}
	if result.Err != nil {
		action.Error = result.Err.Error()
	}
	if err := r.database.RecordAction(action); err != nil {
		r.logger.Warn("recording action in ledger", "archive", action.Archive, "error", err)
	}
}
