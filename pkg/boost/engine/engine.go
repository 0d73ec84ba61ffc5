// Package engine orchestrates batch apply and restore of catalog
// tweaks against an executor, with the applied-tweak record persisted
// after every mutation.
//
// The engine enforces the safety rules around the record:
//
//   - A reversible tweak counts as applied only once its record entry
//     is persisted. If persisting fails, the tweak is reported failed
//     and the batch stops, because continuing without a durable record
//     would strand changes with no way back.
//   - One-way tweaks are never recorded; there is nothing to put back.
//   - Restore replays entries in the order they were applied and
//     removes each entry only after its replay succeeded.
//
// Failures on one tweak do not touch the others: every id in a batch
// gets its own Result.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/logging"
	"github.com/jamesainslie/arcboost/pkg/boost/ops"
	"github.com/jamesainslie/arcboost/pkg/boost/privilege"
	"github.com/jamesainslie/arcboost/pkg/boost/state"
)

// Engine applies and restores tweaks. One batch runs at a time; a
// second call blocks until the first finishes.
type Engine struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	exec     ops.Executor
	store    *state.Store
	gate     privilege.Gate
	observer func(Result)
	log      *logging.Logger
}

// New creates an engine over the given catalog, executor, record
// store, and privilege gate.
func New(cat *catalog.Catalog, x ops.Executor, st *state.Store, gate privilege.Gate) *Engine {
	return &Engine{
		catalog: cat,
		exec:    x,
		store:   st,
		gate:    gate,
		log:     logging.Get("engine"),
	}
}

// SetObserver registers a callback invoked with each Result as it
// completes. The TUI uses it to stream progress. Set it before
// starting a batch; it runs on the batch goroutine.
func (e *Engine) SetObserver(fn func(Result)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = fn
}

// Store returns the record store the engine persists to.
func (e *Engine) Store() *state.Store { return e.store }

// Catalog returns the catalog the engine works from.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Apply applies the requested tweaks. Duplicates are collapsed; known
// ids run in catalog order; unknown ids are reported NotFound after
// them, in request order. The returned error is non-nil only when the
// batch stopped early: a record persistence failure or a cancelled
// context. Per-tweak problems live in the report.
func (e *Engine) Apply(ctx context.Context, ids []string) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &Report{Op: OpApply, Started: time.Now().UTC()}
	defer func() { report.Finished = time.Now().UTC() }()

	requested := make(map[string]struct{}, len(ids))
	var unknown []string
	for _, id := range ids {
		if _, seen := requested[id]; seen {
			continue
		}
		requested[id] = struct{}{}
		if !e.catalog.Has(id) {
			unknown = append(unknown, id)
		}
	}

	e.log.Info("apply batch started", "requested", len(requested))

	for _, tw := range e.catalog.List() {
		if _, ok := requested[tw.ID]; !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			e.log.Warn("apply batch cancelled", "id", tw.ID)
			return report, err
		}

		res, hardErr := e.applyOne(ctx, tw)
		e.record(report, res)
		if hardErr != nil {
			return report, hardErr
		}
	}

	for _, id := range unknown {
		e.log.Warn("unknown tweak requested", "id", id)
		e.record(report, Result{
			ID:      id,
			Outcome: OutcomeNotFound,
			Err:     fmt.Errorf("no tweak with id %q", id),
		})
	}

	counts := report.Counts()
	e.log.Info("apply batch finished",
		"applied", counts.Applied, "skipped", counts.Skipped,
		"failed", counts.Failed, "unknown", counts.NotFound)
	return report, nil
}

// applyOne runs a single tweak's apply path. The returned error is
// non-nil only for batch-stopping persistence failures.
func (e *Engine) applyOne(ctx context.Context, tw catalog.Tweak) (Result, error) {
	res := Result{ID: tw.ID, Name: tw.Name}

	if tw.RequiresElevation && !e.gate.IsElevated() {
		e.log.Warn("skipping tweak, needs elevation", "id", tw.ID)
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	e.log.Info("applying tweak", "id", tw.ID)

	prior, err := tw.Action.Apply(ctx, e.exec)
	if err != nil {
		e.log.Error("apply failed", "id", tw.ID, "error", err)
		res.Outcome = OutcomeFailed
		res.Failure = FailureExecution
		res.Err = err
		return res, nil
	}

	if tw.Reversible {
		entry := state.Entry{PriorState: prior, AppliedAt: time.Now().UTC()}
		if err := e.store.Set(tw.ID, entry); err != nil {
			// The system changed but the record could not say so.
			// Report this tweak failed and stop the batch.
			e.log.Error("record write failed, stopping batch", "id", tw.ID, "error", err)
			res.Outcome = OutcomeFailed
			res.Failure = FailurePersistence
			res.Err = err
			return res, fmt.Errorf("persisting record entry for %s: %w", tw.ID, err)
		}
	}

	res.Outcome = OutcomeApplied
	return res, nil
}

// Restore replays recorded prior states. With a nil or empty only
// list, every record entry is restored; otherwise just the listed ids,
// still in the order they were applied. Ids in only without a record
// entry are ignored. An empty report means there was nothing to
// restore.
func (e *Engine) Restore(ctx context.Context, only []string) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &Report{Op: OpRestore, Started: time.Now().UTC()}
	defer func() { report.Finished = time.Now().UTC() }()

	var filter map[string]struct{}
	if len(only) > 0 {
		filter = make(map[string]struct{}, len(only))
		for _, id := range only {
			filter[id] = struct{}{}
		}
	}

	recorded := e.store.IDs()
	e.log.Info("restore batch started", "recorded", len(recorded))

	for _, id := range recorded {
		if filter != nil {
			if _, ok := filter[id]; !ok {
				continue
			}
		}
		if err := ctx.Err(); err != nil {
			e.log.Warn("restore batch cancelled", "id", id)
			return report, err
		}

		res, hardErr := e.restoreOne(ctx, id)
		e.record(report, res)
		if hardErr != nil {
			return report, hardErr
		}
	}

	counts := report.Counts()
	e.log.Info("restore batch finished",
		"restored", counts.Restored, "skipped", counts.Skipped, "failed", counts.Failed)
	return report, nil
}

// restoreOne replays one record entry. The returned error is non-nil
// only for batch-stopping persistence failures.
func (e *Engine) restoreOne(ctx context.Context, id string) (Result, error) {
	res := Result{ID: id}

	tw, ok := e.catalog.Get(id)
	if !ok {
		// A record written by a different arcboost version. Leave the
		// entry alone and surface it.
		e.log.Warn("record entry has no catalog tweak", "id", id)
		res.Outcome = OutcomeFailed
		res.Failure = FailureUnknownTweak
		res.Err = fmt.Errorf("recorded tweak %q is not in this build's catalog", id)
		return res, nil
	}
	res.Name = tw.Name

	if tw.RequiresElevation && !e.gate.IsElevated() {
		e.log.Warn("skipping restore, needs elevation", "id", id)
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	entry, err := e.store.Get(id)
	if err != nil {
		e.log.Error("record entry unreadable", "id", id, "error", err)
		res.Outcome = OutcomeFailed
		res.Failure = FailureExecution
		res.Err = err
		return res, nil
	}

	e.log.Info("restoring tweak", "id", id)

	if err := tw.Action.Undo(ctx, e.exec, entry.PriorState); err != nil {
		// Entry stays in the record; restore can be retried.
		e.log.Error("restore failed", "id", id, "error", err)
		res.Outcome = OutcomeFailed
		res.Failure = FailureExecution
		res.Err = err
		return res, nil
	}

	if err := e.store.Remove(id); err != nil {
		e.log.Error("record removal failed, stopping batch", "id", id, "error", err)
		res.Outcome = OutcomeFailed
		res.Failure = FailurePersistence
		res.Err = err
		return res, fmt.Errorf("removing record entry for %s: %w", id, err)
	}

	res.Outcome = OutcomeRestored
	return res, nil
}

// record appends a result and notifies the observer.
func (e *Engine) record(report *Report, res Result) {
	report.Results = append(report.Results, res)
	if e.observer != nil {
		e.observer(res)
	}
}
