package realloc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/starcontent/adpulse/internal/budget"
	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
)

// DirectivePublisher delivers budget directives to the platform-push
// collaborator. Delivery failures never roll back committed state.
type DirectivePublisher interface {
	Publish(ctx context.Context, runID string, directives []contracts.PushDirective) error
}

// Engine redistributes one allocation's daily budget across its spending
// targets. Runs are deterministic: identical inputs and parameters
// produce the identical run, so a dry run is an exact preview of the
// commit that would follow.
type Engine struct {
	store     contracts.BudgetStore
	runs      contracts.RunStore
	contents  contracts.ContentReader
	adGroups  contracts.AdGroupReader
	generator *budget.Generator
	publisher DirectivePublisher

	cfg        *engineconfig.Config
	configHash string
	logger     *logger.Logger
}

// NewEngine creates a reallocation engine
func NewEngine(
	cfg *engineconfig.Config,
	configHash string,
	store contracts.BudgetStore,
	runs contracts.RunStore,
	contents contracts.ContentReader,
	adGroups contracts.AdGroupReader,
	generator *budget.Generator,
	publisher DirectivePublisher,
	log *logger.Logger,
) *Engine {
	return &Engine{
		store:      store,
		runs:       runs,
		contents:   contents,
		adGroups:   adGroups,
		generator:  generator,
		publisher:  publisher,
		cfg:        cfg,
		configHash: configHash,
		logger:     log,
	}
}

// Reallocate runs one reallocation for (allocation, date). A dry run
// computes and records the proposal without touching budget state. A
// live run commits under the daily budget's version guard, retrying
// once from a fresh read on conflict.
func (e *Engine) Reallocate(ctx context.Context, allocationID int64, date time.Time, dryRun bool) (*contracts.OptimizationRun, error) {
	date = budget.Midnight(date)
	now := time.Now().UTC()

	alloc, err := e.store.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	plan, err := e.store.GetPlan(ctx, alloc.PlanID)
	if err != nil {
		return nil, err
	}

	if plan.Mode == contracts.ModeManual {
		return nil, contracts.NewValidationError("mode", "plan %d is managed manually", plan.ID)
	}
	if !plan.Covers(date) {
		return nil, contracts.NewValidationError("date",
			"%s is outside plan period %s ~ %s", date.Format("2006-01-02"),
			plan.StartDate.Format("2006-01-02"), plan.EndDate.Format("2006-01-02"))
	}
	if alloc.Locked {
		return nil, contracts.NewValidationError("allocation", "allocation %d is locked", alloc.ID)
	}
	if err := budget.ValidateAllocation(alloc); err != nil {
		return nil, err
	}

	run := &contracts.OptimizationRun{
		RunID:        uuid.NewString(),
		Timestamp:    now,
		Mode:         plan.Mode,
		PlanID:       plan.ID,
		AllocationID: alloc.ID,
		Date:         date,
		DryRun:       dryRun,
		ConfigHash:   e.configHash,
	}

	log := e.logger.WithFields(map[string]interface{}{
		"run_id":        run.RunID,
		"allocation_id": alloc.ID,
		"date":          date.Format("2006-01-02"),
		"dry_run":       dryRun,
	})
	log.Info("Reallocation run started")

	// One retry from a fresh read on version conflict
	for attempt := 0; attempt < 2; attempt++ {
		db, targets, err := e.computeRun(ctx, run, plan, alloc, date, now)
		if err != nil {
			var noTargets *contracts.NoEligibleTargetsError
			if errors.As(err, &noTargets) {
				run.Status = contracts.RunFailed
				run.FailureReason = string(contracts.ReasonNoEligibleTargets)
				if appendErr := e.runs.Append(ctx, run); appendErr != nil {
					log.WithError(appendErr).Error("Failed to record run")
				}
				log.Warn("No eligible targets, nothing distributed")
				return run, err
			}
			return nil, err
		}

		if dryRun {
			run.Status = contracts.RunPreviewed
			if err := e.runs.Append(ctx, run); err != nil {
				return nil, fmt.Errorf("record preview run: %w", err)
			}
			log.WithField("changed", run.ChangedCount()).Info("Reallocation previewed")
			return run, nil
		}

		err = e.store.CommitReallocation(ctx, db, targets, db.Version)
		if err == nil {
			run.Status = contracts.RunApplied
			if err := e.runs.Append(ctx, run); err != nil {
				// Budget state is committed; the missing audit row is the
				// lesser failure and must not look like a failed run
				log.WithError(err).Error("Failed to record applied run")
			}
			log.WithField("changed", run.ChangedCount()).Info("Reallocation applied")
			e.pushDirectives(ctx, run)
			return run, nil
		}

		var conflict *contracts.ConflictError
		if !errors.As(err, &conflict) {
			return nil, fmt.Errorf("commit reallocation: %w", err)
		}
		if attempt == 0 {
			log.WithField("version", conflict.Version).Warn("Version conflict, retrying from fresh read")
			run.Changes = nil
			run.StyleTotals = nil
			run.Directives = nil
			run.UnallocatedPool = decimal.Zero
			continue
		}

		run.Status = contracts.RunFailed
		run.FailureReason = err.Error()
		if appendErr := e.runs.Append(ctx, run); appendErr != nil {
			log.WithError(appendErr).Error("Failed to record run")
		}
		return run, err
	}

	return nil, fmt.Errorf("unreachable reallocation state")
}

// computeRun fills the run's changes from a fresh read of the daily
// budget and its targets, returning the state to commit
func (e *Engine) computeRun(ctx context.Context, run *contracts.OptimizationRun, plan *contracts.BudgetPlan, alloc *contracts.BudgetAllocation, date time.Time, now time.Time) (*contracts.DailyBudget, []*contracts.TargetBudget, error) {
	db, err := e.dailyBudget(ctx, run, plan, alloc, date)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, nil, fmt.Errorf("daily budget for allocation %d on %s could not be created",
			alloc.ID, date.Format("2006-01-02"))
	}
	if db.Locked {
		return nil, nil, contracts.NewValidationError("daily_budget",
			"daily budget for %s is locked", date.Format("2006-01-02"))
	}

	prior, err := e.store.ListTargetBudgets(ctx, alloc.ID, date)
	if err != nil {
		return nil, nil, err
	}

	cands, dropped, err := e.collectCandidates(ctx, plan.Mode, alloc.GroupID, prior, now)
	if err != nil {
		return nil, nil, err
	}
	if len(cands) == 0 {
		run.UnallocatedPool = db.PlannedBudget
		return nil, nil, &contracts.NoEligibleTargetsError{AllocationID: alloc.ID, Date: date}
	}

	pool := db.PlannedBudget
	amounts := make(map[string]decimal.Decimal, len(cands))
	reasons := make(map[string]contracts.ReasonCode, len(cands))

	// Locked targets keep their budget and shrink the pool
	var unlocked []*candidate
	for _, c := range cands {
		if c.locked {
			amounts[targetKey(c.kind, c.targetID)] = c.oldBudget
			reasons[targetKey(c.kind, c.targetID)] = contracts.ReasonLockedSkipped
			pool = pool.Sub(c.oldBudget)
		} else {
			unlocked = append(unlocked, c)
		}
	}
	if pool.IsNegative() {
		pool = decimal.Zero
	}

	// Hard rules pin their targets before proportional distribution.
	// Pinned amounts never exceed what is left of the pool.
	fixed, eligible := applyThresholds(unlocked, e.cfg.Reallocation)
	for _, f := range fixed {
		amount := f.amount
		if amount.GreaterThan(pool) {
			amount = pool
		}
		amounts[targetKey(f.cand.kind, f.cand.targetID)] = amount
		reasons[targetKey(f.cand.kind, f.cand.targetID)] = f.reason
		pool = pool.Sub(amount)
	}

	if len(eligible) > 0 {
		buckets := groupByBucket(eligible, alloc.StyleWeights)
		bucketPools := budget.RebalanceStyles(pool, presentWeights(buckets, alloc.StyleWeights))
		minBudget := e.cfg.Reallocation.MinBudget()

		for style, members := range buckets {
			split := distributeBucket(bucketPools[style], members, minBudget, e.cfg.Reallocation.MaxBucketShare)
			for _, c := range members {
				key := targetKey(c.kind, c.targetID)
				amounts[key] = split[c.targetID]
				switch {
				case split[c.targetID].GreaterThan(c.oldBudget):
					reasons[key] = contracts.ReasonScoreBoost
				case split[c.targetID].LessThan(c.oldBudget):
					reasons[key] = contracts.ReasonScoreReduce
				default:
					reasons[key] = contracts.ReasonUnchanged
				}
			}
		}
	} else {
		// Everything was locked or pinned; the rest of the pool has
		// nowhere to go and is surfaced on the run
		run.UnallocatedPool = pool
	}

	// Targets that fell out of eligibility since the last run are
	// rewritten to zero so their stale rows cannot inflate the
	// committed per-target sum past the daily planned budget
	all := cands
	if len(dropped) > 0 {
		all = make([]*candidate, 0, len(cands)+len(dropped))
		all = append(all, cands...)
		all = append(all, dropped...)
		for _, c := range dropped {
			key := targetKey(c.kind, c.targetID)
			amounts[key] = decimal.Zero
			reasons[key] = contracts.ReasonTargetDropped
		}
	}

	e.buildRunOutputs(run, db, alloc, all, amounts, reasons, date)

	targets := buildTargetRows(alloc.ID, date, all, prior, amounts)
	db.StyleBudgets = styleTotals(cands, amounts, alloc.StyleWeights)

	return db, targets, nil
}

// dailyBudget loads the day's budget row, creating it from the plan
// split when missing. A dry run must leave budget state untouched, so
// a missing row is materialized in memory instead of persisted.
func (e *Engine) dailyBudget(ctx context.Context, run *contracts.OptimizationRun, plan *contracts.BudgetPlan, alloc *contracts.BudgetAllocation, date time.Time) (*contracts.DailyBudget, error) {
	if !run.DryRun {
		return e.generator.EnsureDailyBudget(ctx, plan, alloc, date)
	}
	db, err := e.store.GetDailyBudget(ctx, alloc.ID, date)
	if err != nil {
		return nil, err
	}
	if db != nil {
		return db, nil
	}
	return budget.Materialize(plan, alloc, date), nil
}

// buildRunOutputs writes the ordered change rows, style totals and push
// directives onto the run
func (e *Engine) buildRunOutputs(run *contracts.OptimizationRun, db *contracts.DailyBudget, alloc *contracts.BudgetAllocation, cands []*candidate, amounts map[string]decimal.Decimal, reasons map[string]contracts.ReasonCode, date time.Time) {
	run.Changes = make([]contracts.BudgetChange, 0, len(cands))
	run.Directives = nil

	for _, c := range cands {
		key := targetKey(c.kind, c.targetID)
		newBudget := amounts[key]
		run.Changes = append(run.Changes, contracts.BudgetChange{
			Kind:      c.kind,
			TargetID:  c.targetID,
			Style:     c.style,
			OldBudget: c.oldBudget,
			NewBudget: newBudget,
			Reason:    reasons[key],
		})
		if !c.locked && !newBudget.Equal(c.oldBudget) {
			run.Directives = append(run.Directives, contracts.PushDirective{
				Kind:       c.kind,
				TargetID:   c.targetID,
				ExternalID: c.externalID,
				Platform:   c.platform,
				NewBudget:  newBudget,
				Date:       date,
			})
		}
	}

	run.StyleTotals = styleTotals(cands, amounts, alloc.StyleWeights)
}

// pushDirectives hands the run's directives to the push collaborator.
// Failures are logged as push errors; the committed run stands.
func (e *Engine) pushDirectives(ctx context.Context, run *contracts.OptimizationRun) {
	if e.publisher == nil || len(run.Directives) == 0 {
		return
	}
	if err := e.publisher.Publish(ctx, run.RunID, run.Directives); err != nil {
		e.logger.WithError(err).WithField("run_id", run.RunID).Error("Directive push failed")
	}
}

func groupByBucket(cands []*candidate, weights map[contracts.ContentStyle]float64) map[contracts.ContentStyle][]*candidate {
	buckets := map[contracts.ContentStyle][]*candidate{}
	for _, c := range cands {
		bucket := bucketFor(c.style, weights)
		buckets[bucket] = append(buckets[bucket], c)
	}
	return buckets
}

// presentWeights keeps only the buckets that have candidates and
// renormalizes them to sum to 1.0, so empty styles never strand budget
func presentWeights(buckets map[contracts.ContentStyle][]*candidate, weights map[contracts.ContentStyle]float64) map[contracts.ContentStyle]float64 {
	sum := 0.0
	for style := range buckets {
		sum += weights[style]
	}

	out := make(map[contracts.ContentStyle]float64, len(buckets))
	if sum <= 0 {
		// No weighted bucket has candidates; split evenly across buckets
		even := 1.0 / float64(len(buckets))
		for style := range buckets {
			out[style] = even
		}
		return out
	}
	for style := range buckets {
		out[style] = weights[style] / sum
	}
	return out
}

// buildTargetRows materializes the per-target budget rows to commit,
// reusing prior row ids where they exist
func buildTargetRows(allocationID int64, date time.Time, cands []*candidate, prior []*contracts.TargetBudget, amounts map[string]decimal.Decimal) []*contracts.TargetBudget {
	priorByKey := make(map[string]*contracts.TargetBudget, len(prior))
	for _, t := range prior {
		priorByKey[targetKey(t.Kind, t.TargetID)] = t
	}

	rows := make([]*contracts.TargetBudget, 0, len(cands))
	for _, c := range cands {
		key := targetKey(c.kind, c.targetID)
		row := &contracts.TargetBudget{
			AllocationID:  allocationID,
			Date:          date,
			Kind:          c.kind,
			TargetID:      c.targetID,
			Style:         c.style,
			PlannedBudget: amounts[key],
			Locked:        c.locked,
		}
		if prev, ok := priorByKey[key]; ok {
			row.ID = prev.ID
			row.ActualSpend = prev.ActualSpend
		}
		rows = append(rows, row)
	}
	return rows
}

// styleTotals sums the new amounts per style bucket
func styleTotals(cands []*candidate, amounts map[string]decimal.Decimal, weights map[contracts.ContentStyle]float64) map[contracts.ContentStyle]decimal.Decimal {
	totals := map[contracts.ContentStyle]decimal.Decimal{}
	for _, c := range cands {
		bucket := bucketFor(c.style, weights)
		totals[bucket] = totals[bucket].Add(amounts[targetKey(c.kind, c.targetID)])
	}
	return totals
}
