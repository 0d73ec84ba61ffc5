package tui

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/arcboost/pkg/boost/catalog"
	"github.com/jamesainslie/arcboost/pkg/boost/ops"
	"github.com/jamesainslie/arcboost/pkg/boost/state"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New([]catalog.Tweak{
		{
			ID:         "sys_one",
			Name:       "System One",
			Summary:    "First system tweak",
			Category:   catalog.CategorySystem,
			Reversible: true,
			Action: catalog.SettingsAction{Changes: []catalog.SettingChange{
				{Key: ops.RegistryKey(ops.HiveCurrentUser, `Software\Test`, "One"), Value: ops.DWord(1)},
			}},
		},
		{
			ID:                "sys_two",
			Name:              "System Two",
			Summary:           "Second system tweak",
			Category:          catalog.CategorySystem,
			RequiresElevation: true,
			Reversible:        true,
			Action: catalog.SettingsAction{Changes: []catalog.SettingChange{
				{Key: ops.RegistryKey(ops.HiveLocalMachine, `Software\Test`, "Two"), Value: ops.DWord(2)},
			}},
		},
		{
			ID:         "net_one",
			Name:       "Network One",
			Summary:    "Network tweak",
			Category:   catalog.CategoryNetwork,
			Reversible: true,
			Action: catalog.SettingsAction{Changes: []catalog.SettingChange{
				{Key: ops.RegistryKey(ops.HiveLocalMachine, `Software\Test`, "Net"), Value: ops.DWord(3)},
			}},
		},
		{
			ID:       "gfx_purge",
			Name:     "Purge Cache",
			Summary:  "One-way cache purge",
			Category: catalog.CategoryGraphics,
			Action:   catalog.PurgeAction{Paths: []string{"/tmp/cache-a", "/tmp/cache-b"}},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	return cat
}

func testStore(t *testing.T) *state.Store {
	t.Helper()

	st, err := state.Open(filepath.Join(t.TempDir(), "applied.json"))
	if err != nil {
		t.Fatalf("state.Open() error = %v", err)
	}
	return st
}

func testPicker(t *testing.T) PickerModel {
	t.Helper()
	return NewPickerModel(testCatalog(t), testStore(t), true, false, "test")
}

func TestNewPickerModelRows(t *testing.T) {
	m := testPicker(t)

	// 3 category headers plus 4 tweaks.
	if len(m.rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(m.rows))
	}
	if !m.rows[0].isHeader || m.rows[0].category != catalog.CategorySystem {
		t.Error("expected first row to be the System header")
	}
	if m.TweakCount() != 4 {
		t.Errorf("expected 4 tweaks, got %d", m.TweakCount())
	}
	if m.cursor != 1 {
		t.Errorf("expected cursor on first tweak row, got %d", m.cursor)
	}
	if m.HasSelection() {
		t.Error("expected no selection initially")
	}
	if m.cacheBytes != -1 {
		t.Errorf("expected cacheBytes sentinel -1, got %d", m.cacheBytes)
	}
}

func TestPickerCursorSkipsHeaders(t *testing.T) {
	m := testPicker(t)

	// Rows: [System] sys_one sys_two [Network] net_one [Graphics] gfx_purge
	m.HandleKey("down")
	if m.cursor != 2 {
		t.Errorf("after down: cursor = %d, want 2", m.cursor)
	}

	// Next down crosses the Network header.
	m.HandleKey("down")
	if m.cursor != 4 {
		t.Errorf("after second down: cursor = %d, want 4", m.cursor)
	}

	m.HandleKey("up")
	if m.cursor != 2 {
		t.Errorf("after up: cursor = %d, want 2", m.cursor)
	}

	m.HandleKey("G")
	if m.cursor != 6 {
		t.Errorf("after G: cursor = %d, want 6", m.cursor)
	}

	// Down at the bottom stays put.
	m.HandleKey("down")
	if m.cursor != 6 {
		t.Errorf("down at bottom moved cursor to %d", m.cursor)
	}

	m.HandleKey("g")
	if m.cursor != 1 {
		t.Errorf("after g: cursor = %d, want 1", m.cursor)
	}

	// Up at the top stays put.
	m.HandleKey("up")
	if m.cursor != 1 {
		t.Errorf("up at top moved cursor to %d", m.cursor)
	}
}

func TestPickerToggleSelection(t *testing.T) {
	m := testPicker(t)

	m.HandleKey(" ")
	if !m.selected["sys_one"] {
		t.Error("expected sys_one selected after toggle")
	}
	if m.SelectedCount() != 1 {
		t.Errorf("SelectedCount() = %d, want 1", m.SelectedCount())
	}

	m.HandleKey(" ")
	if m.HasSelection() {
		t.Error("expected selection cleared after second toggle")
	}
}

func TestPickerSelectAllAndNone(t *testing.T) {
	m := testPicker(t)

	m.HandleKey("a")
	if m.SelectedCount() != 4 {
		t.Errorf("after select all: SelectedCount() = %d, want 4", m.SelectedCount())
	}

	m.HandleKey("n")
	if m.HasSelection() {
		t.Error("expected no selection after select none")
	}
}

func TestPickerSelectedIDsKeepCatalogOrder(t *testing.T) {
	m := testPicker(t)

	// Select in reverse order.
	m.HandleKey("G")
	m.HandleKey(" ")
	m.HandleKey("g")
	m.HandleKey(" ")

	ids := m.SelectedIDs()
	want := []string{"sys_one", "gfx_purge"}
	if len(ids) != len(want) {
		t.Fatalf("SelectedIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SelectedIDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestPickerReloadAppliedMarkers(t *testing.T) {
	st := testStore(t)
	m := NewPickerModel(testCatalog(t), st, true, false, "test")

	if m.AppliedCount() != 0 {
		t.Fatalf("expected no applied markers initially, got %d", m.AppliedCount())
	}

	entry := state.Entry{PriorState: json.RawMessage(`{"old":1}`), AppliedAt: time.Now()}
	if err := st.Set("sys_two", entry); err != nil {
		t.Fatalf("Set(sys_two) error = %v", err)
	}
	if err := st.Set("from_other_build", entry); err != nil {
		t.Fatalf("Set(from_other_build) error = %v", err)
	}

	m.Reload(st)

	if !m.IsApplied("sys_two") {
		t.Error("expected sys_two marked applied after reload")
	}
	if m.IsApplied("sys_one") {
		t.Error("did not expect sys_one marked applied")
	}
	if m.AppliedCount() != 1 {
		t.Errorf("AppliedCount() = %d, want 1", m.AppliedCount())
	}
	if m.UnknownCount() != 1 {
		t.Errorf("UnknownCount() = %d, want 1", m.UnknownCount())
	}
}

func TestPickerPurgePaths(t *testing.T) {
	m := testPicker(t)

	paths := m.purgePaths()
	want := []string{"/tmp/cache-a", "/tmp/cache-b"}
	if len(paths) != len(want) {
		t.Fatalf("purgePaths() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("purgePaths()[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestPickerNoticeClearedOnNextKey(t *testing.T) {
	m := testPicker(t)

	m.SetNotice("nothing selected")
	if m.notice == "" {
		t.Fatal("expected notice to be set")
	}

	m.HandleKey("down")
	if m.notice != "" {
		t.Errorf("expected notice cleared on key press, got %q", m.notice)
	}
}

func TestPickerViewRenders(t *testing.T) {
	m := testPicker(t)
	m.SetDimensions(100, 30)
	m.SetCacheBytes(512 * 1024 * 1024)

	view := m.View()
	if view == "" {
		t.Fatal("expected non-empty view")
	}
	for _, want := range []string{"sys_one", "Purge Cache", "ONE-WAY", "Selected: 0 of 4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
