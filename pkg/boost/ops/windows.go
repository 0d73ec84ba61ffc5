//go:build windows

package ops

import (
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sys/windows/registry"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// commandTimeout bounds external commands like powercfg.
const commandTimeout = 30 * time.Second

// serviceWaitTimeout bounds how long SetService waits for a service to
// reach the requested run state.
const serviceWaitTimeout = 30 * time.Second

// osExecutor performs real system changes through the Windows registry,
// the service control manager, and powercfg.
type osExecutor struct{}

// NewOS returns the Executor backed by the running operating system.
func NewOS() Executor { return &osExecutor{} }

func (x *osExecutor) ReadSetting(ctx context.Context, key Key) (Value, error) {
	switch key.Kind {
	case KindPower:
		return readPowerScheme(ctx)
	case KindRegistry:
		return readRegistryValue(key)
	default:
		return Value{}, fmt.Errorf("read %s: unknown key kind %q", key, key.Kind)
	}
}

func (x *osExecutor) WriteSetting(ctx context.Context, key Key, val Value) error {
	switch key.Kind {
	case KindPower:
		return writePowerScheme(ctx, val)
	case KindRegistry:
		return writeRegistryValue(key, val)
	default:
		return fmt.Errorf("write %s: unknown key kind %q", key, key.Kind)
	}
}

func (x *osExecutor) Subkeys(_ context.Context, key Key) ([]string, error) {
	if key.Kind != KindRegistry {
		return nil, fmt.Errorf("subkeys %s: not a registry key", key)
	}

	root, err := rootKey(key.Hive)
	if err != nil {
		return nil, err
	}

	k, err := registry.OpenKey(root, key.Path, registry.ENUMERATE_SUB_KEYS)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", key, err)
	}
	return names, nil
}

func (x *osExecutor) ReadService(_ context.Context, name string) (ServiceState, error) {
	m, err := mgr.Connect()
	if err != nil {
		return ServiceState{}, fmt.Errorf("connect service manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return ServiceState{}, fmt.Errorf("open service %s: %w", name, err)
	}
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return ServiceState{}, fmt.Errorf("read config of service %s: %w", name, err)
	}

	status, err := s.Query()
	if err != nil {
		return ServiceState{}, fmt.Errorf("query service %s: %w", name, err)
	}

	return ServiceState{
		StartMode: startModeFromWindows(cfg.StartType),
		Running:   status.State == svc.Running,
	}, nil
}

func (x *osExecutor) SetService(ctx context.Context, name string, target ServiceState) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect service manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return fmt.Errorf("open service %s: %w", name, err)
	}
	defer s.Close()

	cfg, err := s.Config()
	if err != nil {
		return fmt.Errorf("read config of service %s: %w", name, err)
	}
	if want := startModeToWindows(target.StartMode); cfg.StartType != want {
		cfg.StartType = want
		if err := s.UpdateConfig(cfg); err != nil {
			return fmt.Errorf("update config of service %s: %w", name, err)
		}
	}

	status, err := s.Query()
	if err != nil {
		return fmt.Errorf("query service %s: %w", name, err)
	}

	switch {
	case target.Running && status.State != svc.Running:
		if err := s.Start(); err != nil {
			return fmt.Errorf("start service %s: %w", name, err)
		}
		return waitServiceState(ctx, s, svc.Running)
	case !target.Running && status.State != svc.Stopped:
		if _, err := s.Control(svc.Stop); err != nil {
			return fmt.Errorf("stop service %s: %w", name, err)
		}
		return waitServiceState(ctx, s, svc.Stopped)
	}
	return nil
}

func (x *osExecutor) ClearCache(ctx context.Context, path string) error {
	return clearCacheDir(ctx, path)
}

func rootKey(hive string) (registry.Key, error) {
	switch hive {
	case HiveCurrentUser:
		return registry.CURRENT_USER, nil
	case HiveLocalMachine:
		return registry.LOCAL_MACHINE, nil
	default:
		return 0, fmt.Errorf("unknown registry hive %q", hive)
	}
}

func readRegistryValue(key Key) (Value, error) {
	root, err := rootKey(key.Hive)
	if err != nil {
		return Value{}, err
	}

	k, err := registry.OpenKey(root, key.Path, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return Absent(), nil
	}
	if err != nil {
		return Value{}, fmt.Errorf("open %s: %w", key, err)
	}
	defer k.Close()

	_, valType, err := k.GetValue(key.Name, nil)
	if errors.Is(err, registry.ErrNotExist) {
		return Absent(), nil
	}
	if err != nil {
		return Value{}, fmt.Errorf("query %s: %w", key, err)
	}

	switch valType {
	case registry.DWORD:
		v, _, err := k.GetIntegerValue(key.Name)
		if err != nil {
			return Value{}, fmt.Errorf("read %s: %w", key, err)
		}
		return DWord(uint32(v)), nil
	case registry.SZ, registry.EXPAND_SZ:
		s, _, err := k.GetStringValue(key.Name)
		if err != nil {
			return Value{}, fmt.Errorf("read %s: %w", key, err)
		}
		return String(s), nil
	default:
		return Value{}, fmt.Errorf("read %s: unsupported registry value type %d", key, valType)
	}
}

func writeRegistryValue(key Key, val Value) error {
	root, err := rootKey(key.Hive)
	if err != nil {
		return err
	}

	if val.IsAbsent() {
		k, err := registry.OpenKey(root, key.Path, registry.SET_VALUE)
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("open %s: %w", key, err)
		}
		defer k.Close()

		if err := k.DeleteValue(key.Name); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	}

	k, _, err := registry.CreateKey(root, key.Path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	defer k.Close()

	switch val.Kind {
	case ValueDWord:
		if err := k.SetDWordValue(key.Name, val.DWord); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	case ValueString:
		if err := k.SetStringValue(key.Name, val.Str); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	default:
		return fmt.Errorf("write %s: unsupported value kind %q", key, val.Kind)
	}
	return nil
}

// schemeGUIDPattern matches the GUID powercfg prints for a scheme.
var schemeGUIDPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

func readPowerScheme(ctx context.Context) (Value, error) {
	out, err := runPowercfg(ctx, "/getactivescheme")
	if err != nil {
		return Value{}, fmt.Errorf("query active power scheme: %w", err)
	}

	guid := schemeGUIDPattern.FindString(out)
	if guid == "" {
		return Value{}, fmt.Errorf("query active power scheme: no GUID in %q", strings.TrimSpace(out))
	}
	return String(strings.ToLower(guid)), nil
}

func writePowerScheme(ctx context.Context, val Value) error {
	if val.Kind != ValueString {
		return fmt.Errorf("set power scheme: expected a scheme GUID string, got %q", val.Kind)
	}
	if _, err := runPowercfg(ctx, "/setactive", val.Str); err != nil {
		return fmt.Errorf("set power scheme %s: %w", val.Str, err)
	}
	return nil
}

func runPowercfg(ctx context.Context, args ...string) (string, error) {
	bin, err := osexec.LookPath("powercfg")
	if err != nil {
		bin = "powercfg"
	}

	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := osexec.CommandContext(runCtx, bin, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("powercfg %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func waitServiceState(ctx context.Context, s *mgr.Service, want svc.State) error {
	deadline := time.Now().Add(serviceWaitTimeout)
	for {
		status, err := s.Query()
		if err != nil {
			return fmt.Errorf("query service %s: %w", s.Name, err)
		}
		if status.State == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("service %s did not settle within %s", s.Name, serviceWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(300 * time.Millisecond):
		}
	}
}

func startModeFromWindows(t uint32) StartMode {
	switch t {
	case mgr.StartDisabled:
		return StartDisabled
	case mgr.StartManual:
		return StartManual
	default:
		return StartAutomatic
	}
}

func startModeToWindows(m StartMode) uint32 {
	switch m {
	case StartDisabled:
		return mgr.StartDisabled
	case StartManual:
		return mgr.StartManual
	default:
		return mgr.StartAutomatic
	}
}
