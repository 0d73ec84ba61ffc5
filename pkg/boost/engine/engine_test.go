package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/engine"
	"github.com/jamesainslie/arcboost/pkg/boost/ops"
	"github.com/jamesainslie/arcboost/pkg/boost/privilege"
	"github.com/jamesainslie/arcboost/pkg/boost/state"
)

var (
	alphaKey = ops.RegistryKey(ops.HiveCurrentUser, `Software\Arc\Alpha`, "Enabled")
	bravoKey = ops.RegistryKey(ops.HiveLocalMachine, `SYSTEM\Arc\Bravo`, "Throttle")
	deltaKey = ops.RegistryKey(ops.HiveCurrentUser, `Software\Arc\Delta`, "Mode")
)

// testCatalog is a small catalog exercising every apply path: a plain
// user tweak, an elevated tweak, a second user tweak, and a one-way
// cache purge.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New([]catalog.Tweak{
		{
			ID:         "alpha",
			Name:       "Alpha",
			Category:   catalog.CategorySystem,
			Reversible: true,
			Action: catalog.SettingsAction{Changes: []catalog.SettingChange{
				{Key: alphaKey, Value: ops.DWord(1)},
			}},
		},
		{
			ID:                "bravo",
			Name:              "Bravo",
			Category:          catalog.CategorySystem,
			RequiresElevation: true,
			Reversible:        true,
			Action: catalog.SettingsAction{Changes: []catalog.SettingChange{
				{Key: bravoKey, Value: ops.DWord(0)},
			}},
		},
		{
			ID:         "delta",
			Name:       "Delta",
			Category:   catalog.CategoryNetwork,
			Reversible: true,
			Action: catalog.SettingsAction{Changes: []catalog.SettingChange{
				{Key: deltaKey, Value: ops.String("fast")},
			}},
		},
		{
			ID:       "charlie",
			Name:     "Charlie",
			Category: catalog.CategoryGraphics,
			Action:   catalog.PurgeAction{Paths: []string{"gpu-cache"}},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cat
}

func newEngine(t *testing.T, gate privilege.Gate) (*engine.Engine, *ops.Memory, *state.Store) {
	t.Helper()

	mem := ops.NewMemory()
	st, err := state.Open(filepath.Join(t.TempDir(), "applied.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return engine.New(testCatalog(t), mem, st, gate), mem, st
}

// breakStore makes the next record save fail by putting a directory
// where the record file goes.
func breakStore(t *testing.T, st *state.Store) {
	t.Helper()

	_ = os.Remove(st.Path())
	if err := os.Mkdir(st.Path(), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
}

func resultIDs(rep *engine.Report) []string {
	ids := make([]string, len(rep.Results))
	for i, res := range rep.Results {
		ids[i] = res.ID
	}
	return ids
}

func TestApplyRecordsPriorState(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))
	mem.Seed(alphaKey, ops.DWord(7))

	rep, err := eng.Apply(context.Background(), []string{"alpha"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(rep.Results) != 1 || rep.Results[0].Outcome != engine.OutcomeApplied {
		t.Fatalf("results = %+v, want one applied", rep.Results)
	}
	if got := mem.Setting(alphaKey); !got.Equal(ops.DWord(1)) {
		t.Errorf("setting = %s, want dword 1", got)
	}

	entry, err := st.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.AppliedAt.IsZero() {
		t.Error("AppliedAt is zero")
	}

	var captured []struct {
		Value ops.Value `json:"value"`
	}
	if err := json.Unmarshal(entry.PriorState, &captured); err != nil {
		t.Fatalf("decode priorState: %v", err)
	}
	if len(captured) != 1 || !captured[0].Value.Equal(ops.DWord(7)) {
		t.Errorf("priorState = %s, want captured dword 7", entry.PriorState)
	}
}

func TestApplySkipsElevatedTweaksWithoutPrivilege(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))

	rep, err := eng.Apply(context.Background(), []string{"bravo"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	res := rep.Results[0]
	if res.Outcome != engine.OutcomeSkipped || res.Failed() {
		t.Fatalf("result = %+v, want skipped", res)
	}
	if writes := mem.Writes(); len(writes) != 0 {
		t.Errorf("writes = %v, want none", writes)
	}
	if st.Has("bravo") {
		t.Error("skipped tweak was recorded")
	}
	if got := rep.Summary(); got != "0 applied, 1 skipped (need admin)" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestApplyElevatedTweakWithPrivilege(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(true))

	rep, err := eng.Apply(context.Background(), []string{"bravo"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.Results[0].Outcome != engine.OutcomeApplied {
		t.Fatalf("result = %+v, want applied", rep.Results[0])
	}
	if got := mem.Setting(bravoKey); !got.Equal(ops.DWord(0)) {
		t.Errorf("setting = %s, want dword 0", got)
	}
	if !st.Has("bravo") {
		t.Error("applied tweak not recorded")
	}
}

func TestApplyDeduplicatesAndOrdersResults(t *testing.T) {
	t.Parallel()

	eng, _, _ := newEngine(t, privilege.Static(false))

	// Known ids run in catalog order regardless of request order, and
	// unknown ids come last.
	rep, err := eng.Apply(context.Background(), []string{"zzz_missing", "charlie", "alpha", "alpha"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := []string{"alpha", "charlie", "zzz_missing"}
	if got := resultIDs(rep); !slices.Equal(got, want) {
		t.Fatalf("result ids = %v, want %v", got, want)
	}

	missing := rep.Results[2]
	if missing.Outcome != engine.OutcomeNotFound {
		t.Errorf("outcome = %s, want not-found", missing.Outcome)
	}
	if missing.Err == nil || !strings.Contains(missing.Err.Error(), "zzz_missing") {
		t.Errorf("err = %v, want it to name the id", missing.Err)
	}
	if got := rep.Summary(); got != "2 applied, 1 unknown" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestApplyExecutionFailureDoesNotStopBatch(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(true))
	boom := errors.New("registry says no")
	mem.FailWrite(alphaKey, boom)

	rep, err := eng.Apply(context.Background(), []string{"alpha", "bravo"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	failed := rep.Results[0]
	if failed.Outcome != engine.OutcomeFailed || failed.Failure != engine.FailureExecution {
		t.Fatalf("result = %+v, want execution failure", failed)
	}
	if !errors.Is(failed.Err, boom) {
		t.Errorf("err = %v, want wrapped %v", failed.Err, boom)
	}
	if st.Has("alpha") {
		t.Error("failed tweak was recorded")
	}

	if rep.Results[1].Outcome != engine.OutcomeApplied {
		t.Errorf("second result = %+v, want applied", rep.Results[1])
	}
	if !st.Has("bravo") {
		t.Error("later tweak not recorded")
	}
}

func TestApplyPersistenceFailureStopsBatch(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))
	breakStore(t, st)

	rep, err := eng.Apply(context.Background(), []string{"alpha", "delta"})
	if err == nil {
		t.Fatal("Apply returned nil error after a record write failure")
	}
	if !strings.Contains(err.Error(), "alpha") {
		t.Errorf("err = %v, want it to name the tweak", err)
	}

	if len(rep.Results) != 1 {
		t.Fatalf("results = %v, want the batch to stop after alpha", resultIDs(rep))
	}
	res := rep.Results[0]
	if res.Outcome != engine.OutcomeFailed || res.Failure != engine.FailurePersistence {
		t.Fatalf("result = %+v, want persistence failure", res)
	}

	// The system change itself went through; only the record is behind.
	if got := mem.Setting(alphaKey); !got.Equal(ops.DWord(1)) {
		t.Errorf("setting = %s, want dword 1", got)
	}
	if got := mem.Setting(deltaKey); !got.IsAbsent() {
		t.Errorf("later tweak ran after the stop: setting = %s", got)
	}
}

func TestApplyOneWayTweakNeverRecorded(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))

	rep, err := eng.Apply(context.Background(), []string{"charlie"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.Results[0].Outcome != engine.OutcomeApplied {
		t.Fatalf("result = %+v, want applied", rep.Results[0])
	}
	if got := mem.Cleared(); !slices.Equal(got, []string{"gpu-cache"}) {
		t.Errorf("cleared = %v, want [gpu-cache]", got)
	}
	if st.Len() != 0 {
		t.Errorf("record has %d entries, want none", st.Len())
	}
}

func TestReapplyOverwritesPriorStateInPlace(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))
	mem.Seed(alphaKey, ops.DWord(7))

	if _, err := eng.Apply(context.Background(), []string{"alpha", "delta"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	first, err := st.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if _, err := eng.Apply(context.Background(), []string{"alpha"}); err != nil {
		t.Fatalf("reapply: %v", err)
	}

	// The entry keeps its position but the capture now holds what the
	// second apply found, the already-tweaked value.
	if got := st.IDs(); !slices.Equal(got, []string{"alpha", "delta"}) {
		t.Errorf("record order = %v, want [alpha delta]", got)
	}
	second, err := st.Get("alpha")
	if err != nil {
		t.Fatalf("Get after reapply: %v", err)
	}
	var captured []struct {
		Value ops.Value `json:"value"`
	}
	if err := json.Unmarshal(second.PriorState, &captured); err != nil {
		t.Fatalf("decode priorState: %v", err)
	}
	if len(captured) != 1 || !captured[0].Value.Equal(ops.DWord(1)) {
		t.Errorf("priorState = %s, want captured dword 1", second.PriorState)
	}
	if second.AppliedAt.Before(first.AppliedAt) {
		t.Errorf("AppliedAt went backwards: %v -> %v", first.AppliedAt, second.AppliedAt)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))
	mem.Seed(alphaKey, ops.DWord(7))

	if _, err := eng.Apply(context.Background(), []string{"alpha", "delta"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rep, err := eng.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := resultIDs(rep); !slices.Equal(got, []string{"alpha", "delta"}) {
		t.Fatalf("restore order = %v, want applied order", got)
	}
	for _, res := range rep.Results {
		if res.Outcome != engine.OutcomeRestored {
			t.Errorf("result %s = %+v, want restored", res.ID, res)
		}
	}

	if got := mem.Setting(alphaKey); !got.Equal(ops.DWord(7)) {
		t.Errorf("alpha = %s, want original dword 7", got)
	}
	if got := mem.Setting(deltaKey); !got.IsAbsent() {
		t.Errorf("delta = %s, want absent again", got)
	}
	if st.Len() != 0 {
		t.Errorf("record has %d entries after restore, want none", st.Len())
	}
	if got := rep.Summary(); got != "2/2 restored" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestRestoreOnlyListedIDs(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))

	if _, err := eng.Apply(context.Background(), []string{"alpha", "delta"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rep, err := eng.Restore(context.Background(), []string{"delta"})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := resultIDs(rep); !slices.Equal(got, []string{"delta"}) {
		t.Fatalf("result ids = %v, want [delta]", got)
	}

	if got := mem.Setting(deltaKey); !got.IsAbsent() {
		t.Errorf("delta = %s, want absent again", got)
	}
	if got := mem.Setting(alphaKey); !got.Equal(ops.DWord(1)) {
		t.Errorf("alpha = %s, want still tweaked", got)
	}
	if !st.Has("alpha") || st.Has("delta") {
		t.Errorf("record ids = %v, want just alpha", st.IDs())
	}
}

func TestRestoreSkipsElevatedEntriesWithoutPrivilege(t *testing.T) {
	t.Parallel()

	elevated, mem, st := newEngine(t, privilege.Static(true))
	if _, err := elevated.Apply(context.Background(), []string{"bravo"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Same record, now from an unelevated process.
	plain := engine.New(testCatalog(t), mem, st, privilege.Static(false))
	rep, err := plain.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if rep.Results[0].Outcome != engine.OutcomeSkipped {
		t.Fatalf("result = %+v, want skipped", rep.Results[0])
	}
	if !st.Has("bravo") {
		t.Error("skipped entry was removed")
	}
	if got := mem.Setting(bravoKey); !got.Equal(ops.DWord(0)) {
		t.Errorf("setting = %s, want still tweaked", got)
	}
}

func TestRestoreUnknownRecordEntryPreserved(t *testing.T) {
	t.Parallel()

	eng, _, st := newEngine(t, privilege.Static(false))

	ghost := state.Entry{PriorState: json.RawMessage(`{"from":"the future"}`), AppliedAt: time.Now().UTC()}
	if err := st.Set("ghost_tweak", ghost); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := eng.Apply(context.Background(), []string{"alpha"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rep, err := eng.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := resultIDs(rep); !slices.Equal(got, []string{"ghost_tweak", "alpha"}) {
		t.Fatalf("result ids = %v", got)
	}

	unknown := rep.Results[0]
	if unknown.Outcome != engine.OutcomeFailed || unknown.Failure != engine.FailureUnknownTweak {
		t.Fatalf("result = %+v, want unknown-tweak failure", unknown)
	}
	if !st.Has("ghost_tweak") {
		t.Error("unknown entry was removed from the record")
	}
	if rep.Results[1].Outcome != engine.OutcomeRestored {
		t.Errorf("known entry = %+v, want restored", rep.Results[1])
	}
}

func TestRestoreFailureKeepsEntryForRetry(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))
	mem.Seed(alphaKey, ops.DWord(7))

	if _, err := eng.Apply(context.Background(), []string{"alpha"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	boom := errors.New("key is locked")
	mem.FailWrite(alphaKey, boom)

	rep, err := eng.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	res := rep.Results[0]
	if res.Outcome != engine.OutcomeFailed || res.Failure != engine.FailureExecution {
		t.Fatalf("result = %+v, want execution failure", res)
	}
	if !st.Has("alpha") {
		t.Fatal("failed entry was removed from the record")
	}

	// Once the key is writable again the same restore succeeds.
	mem.FailWrite(alphaKey, nil)
	rep, err = eng.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("retry Restore: %v", err)
	}
	if rep.Results[0].Outcome != engine.OutcomeRestored {
		t.Fatalf("retry result = %+v, want restored", rep.Results[0])
	}
	if got := mem.Setting(alphaKey); !got.Equal(ops.DWord(7)) {
		t.Errorf("alpha = %s, want original dword 7", got)
	}
	if st.Len() != 0 {
		t.Errorf("record has %d entries, want none", st.Len())
	}
}

func TestRestoreUndecodableEntryFails(t *testing.T) {
	t.Parallel()

	eng, _, st := newEngine(t, privilege.Static(false))

	entry := state.Entry{PriorState: json.RawMessage(`"not a capture"`), AppliedAt: time.Now().UTC()}
	if err := st.Set("alpha", entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	rep, err := eng.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	res := rep.Results[0]
	if res.Outcome != engine.OutcomeFailed || res.Failure != engine.FailureExecution {
		t.Fatalf("result = %+v, want execution failure", res)
	}
	if !st.Has("alpha") {
		t.Error("undecodable entry was removed from the record")
	}
}

func TestRestorePersistenceFailureStopsBatch(t *testing.T) {
	t.Parallel()

	eng, mem, st := newEngine(t, privilege.Static(false))
	mem.Seed(alphaKey, ops.DWord(7))

	if _, err := eng.Apply(context.Background(), []string{"alpha", "delta"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	breakStore(t, st)

	rep, err := eng.Restore(context.Background(), nil)
	if err == nil {
		t.Fatal("Restore returned nil error after a record write failure")
	}
	if len(rep.Results) != 1 {
		t.Fatalf("results = %v, want the batch to stop after alpha", resultIDs(rep))
	}
	res := rep.Results[0]
	if res.Outcome != engine.OutcomeFailed || res.Failure != engine.FailurePersistence {
		t.Fatalf("result = %+v, want persistence failure", res)
	}

	// The replay itself ran; the record still lists both entries.
	if got := mem.Setting(alphaKey); !got.Equal(ops.DWord(7)) {
		t.Errorf("alpha = %s, want original dword 7", got)
	}
	if got := st.IDs(); !slices.Equal(got, []string{"alpha", "delta"}) {
		t.Errorf("record ids = %v, want both preserved", got)
	}
}

func TestRestoreNothingToRestore(t *testing.T) {
	t.Parallel()

	eng, _, _ := newEngine(t, privilege.Static(false))

	rep, err := eng.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !rep.NothingToRestore() {
		t.Errorf("NothingToRestore() = false with %v", resultIDs(rep))
	}
	if got := rep.Summary(); got != "nothing to restore" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestApplyStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	eng, mem, _ := newEngine(t, privilege.Static(false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := eng.Apply(ctx, []string{"alpha"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(rep.Results) != 0 {
		t.Errorf("results = %v, want none", resultIDs(rep))
	}
	if writes := mem.Writes(); len(writes) != 0 {
		t.Errorf("writes = %v, want none", writes)
	}
}

func TestObserverSeesResultsInOrder(t *testing.T) {
	t.Parallel()

	eng, _, _ := newEngine(t, privilege.Static(false))

	var seen []string
	eng.SetObserver(func(res engine.Result) {
		seen = append(seen, res.ID)
	})

	rep, err := eng.Apply(context.Background(), []string{"charlie", "alpha"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !slices.Equal(seen, resultIDs(rep)) {
		t.Errorf("observer saw %v, report has %v", seen, resultIDs(rep))
	}
}

func TestSummaryFormats(t *testing.T) {
	t.Parallel()

	apply := &engine.Report{Op: engine.OpApply, Results: []engine.Result{
		{ID: "a", Outcome: engine.OutcomeApplied},
		{ID: "b", Outcome: engine.OutcomeSkipped},
		{ID: "c", Outcome: engine.OutcomeFailed, Failure: engine.FailureExecution},
		{ID: "d", Outcome: engine.OutcomeNotFound},
	}}
	if got := apply.Summary(); got != "1 applied, 1 skipped (need admin), 1 failed, 1 unknown" {
		t.Errorf("apply Summary() = %q", got)
	}

	restore := &engine.Report{Op: engine.OpRestore, Results: []engine.Result{
		{ID: "a", Outcome: engine.OutcomeRestored},
		{ID: "b", Outcome: engine.OutcomeFailed, Failure: engine.FailureExecution},
	}}
	if got := restore.Summary(); got != "1/2 restored, 1 failed" {
		t.Errorf("restore Summary() = %q", got)
	}
}

// The built-in catalog drives the same paths end to end.
func TestEngineWithDefaultCatalog(t *testing.T) {
	t.Parallel()

	mem := ops.NewMemory()
	st, err := state.Open(filepath.Join(t.TempDir(), "applied.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	eng := engine.New(catalog.Default(), mem, st, privilege.Static(false))

	rep, err := eng.Apply(context.Background(), []string{
		"game_mode_enable", "system_responsiveness", "clear_shader_cache",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	counts := rep.Counts()
	if counts.Applied != 2 || counts.Skipped != 1 {
		t.Fatalf("counts = %+v, want 2 applied 1 skipped", counts)
	}
	if !st.Has("game_mode_enable") {
		t.Error("game_mode_enable not recorded")
	}
	if st.Has("system_responsiveness") || st.Has("clear_shader_cache") {
		t.Errorf("record ids = %v, want only game_mode_enable", st.IDs())
	}

	rep, err = eng.Restore(context.Background(), nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if rep.Counts().Restored != 1 || st.Len() != 0 {
		t.Fatalf("restore = %+v, record len %d", rep.Counts(), st.Len())
	}
}
