package engine

import (
	"fmt"
	"time"
)

// Op names a batch operation.
type Op string

const (
	OpApply   Op = "apply"
	OpRestore Op = "restore"
)

// Outcome classifies what happened to one tweak in a batch.
type Outcome string

const (
	// OutcomeApplied means the tweak was applied and, if reversible,
	// recorded.
	OutcomeApplied Outcome = "applied"

	// OutcomeRestored means the prior state was replayed and the record
	// entry removed.
	OutcomeRestored Outcome = "restored"

	// OutcomeSkipped means the tweak needs elevation and the process is
	// not elevated. Nothing was attempted.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed means the tweak was attempted and failed; Failure
	// says how.
	OutcomeFailed Outcome = "failed"

	// OutcomeNotFound means the requested id is not in the catalog.
	OutcomeNotFound Outcome = "not-found"
)

// FailureKind classifies a failed result.
type FailureKind string

const (
	// FailureExecution covers errors from the action itself: the
	// capture, the system change, or the replay.
	FailureExecution FailureKind = "execution"

	// FailureUnknownTweak marks a record entry whose id this build's
	// catalog does not know. The entry is preserved.
	FailureUnknownTweak FailureKind = "unknown-tweak"

	// FailurePersistence means the state record could not be written.
	// The batch stops at this result.
	FailurePersistence FailureKind = "persistence"
)

// Result is the outcome for a single tweak id.
type Result struct {
	ID      string
	Name    string
	Outcome Outcome
	Failure FailureKind
	Err     error
}

// Failed reports whether the result is a failure of any kind.
func (r Result) Failed() bool { return r.Outcome == OutcomeFailed }

// Reason returns the failure message, empty for non-failures.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report is the outcome of one batch.
type Report struct {
	Op       Op
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Counts aggregates a report's results by outcome.
type Counts struct {
	Applied  int
	Restored int
	Skipped  int
	Failed   int
	NotFound int
}

// Counts tallies the results by outcome.
func (r *Report) Counts() Counts {
	var c Counts
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeApplied:
			c.Applied++
		case OutcomeRestored:
			c.Restored++
		case OutcomeSkipped:
			c.Skipped++
		case OutcomeFailed:
			c.Failed++
		case OutcomeNotFound:
			c.NotFound++
		}
	}
	return c
}

// NothingToRestore reports whether a restore batch found no entries to
// work on. It is an empty result, not an error.
func (r *Report) NothingToRestore() bool {
	return r.Op == OpRestore && len(r.Results) == 0
}

// Summary renders the one-line outcome humans read first, such as
// "3 applied, 1 skipped (need admin), 1 failed" for an apply batch or
// "2/3 restored" for a restore.
func (r *Report) Summary() string {
	c := r.Counts()

	if r.Op == OpRestore {
		if len(r.Results) == 0 {
			return "nothing to restore"
		}
		s := fmt.Sprintf("%d/%d restored", c.Restored, len(r.Results))
		if c.Skipped > 0 {
			s += fmt.Sprintf(", %d skipped (need admin)", c.Skipped)
		}
		if c.Failed > 0 {
			s += fmt.Sprintf(", %d failed", c.Failed)
		}
		return s
	}

	s := fmt.Sprintf("%d applied", c.Applied)
	if c.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped (need admin)", c.Skipped)
	}
	if c.Failed > 0 {
		s += fmt.Sprintf(", %d failed", c.Failed)
	}
	if c.NotFound > 0 {
		s += fmt.Sprintf(", %d unknown", c.NotFound)
	}
	return s
}

// Duration returns how long the batch ran.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
