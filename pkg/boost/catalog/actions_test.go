package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jamesainslie/arcboost/pkg/boost/ops"
)

func TestSettingsActionApplyAndUndo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()

	keyA := ops.RegistryKey(ops.HiveCurrentUser, `Software\Test`, "A")
	keyB := ops.RegistryKey(ops.HiveCurrentUser, `Software\Test`, "B")
	m.Seed(keyA, ops.DWord(20))
	// keyB starts absent.

	action := SettingsAction{Changes: []SettingChange{
		{Key: keyA, Value: ops.DWord(0)},
		{Key: keyB, Value: ops.String("High")},
	}}

	prior, err := action.Apply(ctx, m)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !m.Setting(keyA).Equal(ops.DWord(0)) {
		t.Errorf("keyA = %v after apply", m.Setting(keyA))
	}
	if !m.Setting(keyB).Equal(ops.String("High")) {
		t.Errorf("keyB = %v after apply", m.Setting(keyB))
	}

	// The capture names each key so it can be decoded independently of
	// the action definition.
	var captured []capturedSetting
	if err := json.Unmarshal(prior, &captured); err != nil {
		t.Fatalf("decoding capture: %v", err)
	}
	if len(captured) != 2 {
		t.Fatalf("captured %d settings, want 2", len(captured))
	}
	if !captured[0].Value.Equal(ops.DWord(20)) {
		t.Errorf("captured[0] = %v, want prior 20", captured[0].Value)
	}
	if !captured[1].Value.IsAbsent() {
		t.Errorf("captured[1] = %v, want absent", captured[1].Value)
	}

	if err := action.Undo(ctx, m, prior); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !m.Setting(keyA).Equal(ops.DWord(20)) {
		t.Errorf("keyA = %v after undo, want 20", m.Setting(keyA))
	}
	if !m.Setting(keyB).IsAbsent() {
		t.Errorf("keyB = %v after undo, want absent", m.Setting(keyB))
	}
}

func TestSettingsActionRollsBackPartialApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()

	keyA := ops.RegistryKey(ops.HiveCurrentUser, `Software\Test`, "A")
	keyB := ops.RegistryKey(ops.HiveCurrentUser, `Software\Test`, "B")
	m.Seed(keyA, ops.DWord(20))
	m.FailWrite(keyB, errors.New("access denied"))

	action := SettingsAction{Changes: []SettingChange{
		{Key: keyA, Value: ops.DWord(0)},
		{Key: keyB, Value: ops.DWord(1)},
	}}

	if _, err := action.Apply(ctx, m); err == nil {
		t.Fatal("Apply succeeded despite write failure")
	}

	// The first write went through and must have been rolled back.
	if !m.Setting(keyA).Equal(ops.DWord(20)) {
		t.Errorf("keyA = %v after failed apply, want original 20", m.Setting(keyA))
	}
}

func TestSettingsActionCaptureFailureWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()

	keyA := ops.RegistryKey(ops.HiveCurrentUser, `Software\Test`, "A")
	keyB := ops.RegistryKey(ops.HiveCurrentUser, `Software\Test`, "B")
	m.FailRead(keyB, errors.New("access denied"))

	action := SettingsAction{Changes: []SettingChange{
		{Key: keyA, Value: ops.DWord(1)},
		{Key: keyB, Value: ops.DWord(1)},
	}}

	if _, err := action.Apply(ctx, m); err == nil {
		t.Fatal("Apply succeeded despite capture failure")
	}
	if got := len(m.Writes()); got != 0 {
		t.Errorf("capture failure still performed %d writes", got)
	}
}

func TestSettingsActionUndoRejectsGarbage(t *testing.T) {
	t.Parallel()

	action := SettingsAction{}
	err := action.Undo(context.Background(), ops.NewMemory(), json.RawMessage(`{not json`))
	if err == nil {
		t.Fatal("Undo accepted a malformed capture")
	}
}

func TestFanoutActionApplyAndUndo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()

	base := ops.RegistryKey(ops.HiveLocalMachine, `SYSTEM\Tcpip\Interfaces`, "")
	m.SeedSubkeys(base, "{guid-1}", "{guid-2}")
	// One interface already carries a value, the other does not.
	existing := base.Subkey("{guid-1}").Named("TcpAckFrequency")
	m.Seed(existing, ops.DWord(2))

	action := FanoutAction{
		Base: base,
		Sets: []NamedValue{
			{Name: "TcpAckFrequency", Value: ops.DWord(1)},
			{Name: "TCPNoDelay", Value: ops.DWord(1)},
		},
	}

	prior, err := action.Apply(ctx, m)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, sub := range []string{"{guid-1}", "{guid-2}"} {
		for _, name := range []string{"TcpAckFrequency", "TCPNoDelay"} {
			key := base.Subkey(sub).Named(name)
			if !m.Setting(key).Equal(ops.DWord(1)) {
				t.Errorf("%s = %v after apply, want 1", key, m.Setting(key))
			}
		}
	}

	if err := action.Undo(ctx, m, prior); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !m.Setting(existing).Equal(ops.DWord(2)) {
		t.Errorf("pre-existing value = %v after undo, want 2", m.Setting(existing))
	}
	gone := base.Subkey("{guid-2}").Named("TCPNoDelay")
	if !m.Setting(gone).IsAbsent() {
		t.Errorf("previously absent value = %v after undo", m.Setting(gone))
	}
}

func TestFanoutActionRollsBackPartialApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()

	base := ops.RegistryKey(ops.HiveLocalMachine, `SYSTEM\Tcpip\Interfaces`, "")
	m.SeedSubkeys(base, "{guid-1}", "{guid-2}")
	first := base.Subkey("{guid-1}").Named("TcpAckFrequency")
	m.FailWrite(base.Subkey("{guid-2}").Named("TcpAckFrequency"), errors.New("access denied"))

	action := FanoutAction{
		Base: base,
		Sets: []NamedValue{{Name: "TcpAckFrequency", Value: ops.DWord(1)}},
	}

	if _, err := action.Apply(ctx, m); err == nil {
		t.Fatal("Apply succeeded despite write failure")
	}
	if !m.Setting(first).IsAbsent() {
		t.Errorf("first interface = %v after failed apply, want absent again", m.Setting(first))
	}
}

func TestServiceActionApplyAndUndo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()
	m.SeedService("SysMain", ops.ServiceState{StartMode: ops.StartAutomatic, Running: true})

	action := ServiceAction{
		Name:   "SysMain",
		Target: ops.ServiceState{StartMode: ops.StartDisabled, Running: false},
	}

	prior, err := action.Apply(ctx, m)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if st, _ := m.Service("SysMain"); st.Running || st.StartMode != ops.StartDisabled {
		t.Errorf("service = %+v after apply", st)
	}

	if err := action.Undo(ctx, m, prior); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if st, _ := m.Service("SysMain"); !st.Running || st.StartMode != ops.StartAutomatic {
		t.Errorf("service = %+v after undo", st)
	}
}

func TestServiceActionUnknownService(t *testing.T) {
	t.Parallel()

	action := ServiceAction{Name: "NoSuchService"}
	_, err := action.Apply(context.Background(), ops.NewMemory())
	if !errors.Is(err, ops.ErrServiceNotFound) {
		t.Errorf("Apply = %v, want ErrServiceNotFound", err)
	}
}

func TestPowerSchemeActionApplyAndUndo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()
	balanced := "381b4222-f694-41f0-9685-ff5bb260df2e"
	m.Seed(ops.PowerSchemeKey(), ops.String(balanced))

	action := PowerSchemeAction{Scheme: highPerformanceScheme}

	prior, err := action.Apply(ctx, m)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := m.Setting(ops.PowerSchemeKey()); !got.Equal(ops.String(highPerformanceScheme)) {
		t.Errorf("active scheme = %v after apply", got)
	}

	if err := action.Undo(ctx, m, prior); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := m.Setting(ops.PowerSchemeKey()); !got.Equal(ops.String(balanced)) {
		t.Errorf("active scheme = %v after undo, want balanced", got)
	}
}

func TestPurgeActionIsOneWay(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := ops.NewMemory()

	action := PurgeAction{Paths: []string{`C:\fake\D3DSCache`, `C:\fake\DXCache`}}

	prior, err := action.Apply(ctx, m)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if prior != nil {
		t.Errorf("one-way action captured %s", prior)
	}
	if got := m.Cleared(); len(got) != 2 {
		t.Errorf("cleared %v, want both paths", got)
	}

	if err := action.Undo(ctx, m, nil); !errors.Is(err, ErrOneWay) {
		t.Errorf("Undo = %v, want ErrOneWay", err)
	}
}

func TestPurgeActionStopsOnFailure(t *testing.T) {
	t.Parallel()

	m := ops.NewMemory()
	m.FailClear(`C:\fake\DXCache`, errors.New("device busy"))

	action := PurgeAction{Paths: []string{`C:\fake\D3DSCache`, `C:\fake\DXCache`}}
	if _, err := action.Apply(context.Background(), m); err == nil {
		t.Fatal("Apply succeeded despite purge failure")
	}
}
