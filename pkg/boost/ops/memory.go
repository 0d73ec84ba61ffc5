package ops

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-memory Executor used by tests and simulated runs. It
// starts empty: settings read as absent and services are unknown until
// seeded. All methods are safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	settings map[Key]Value
	children map[Key][]string
	services map[string]ServiceState
	cleared  []string
	writes   []string

	failReads   map[Key]error
	failWrites  map[Key]error
	failService map[string]error
	failClear   map[string]error
}

// NewMemory returns an empty in-memory executor.
func NewMemory() *Memory {
	return &Memory{
		settings:    make(map[Key]Value),
		children:    make(map[Key][]string),
		services:    make(map[string]ServiceState),
		failReads:   make(map[Key]error),
		failWrites:  make(map[Key]error),
		failService: make(map[string]error),
		failClear:   make(map[string]error),
	}
}

func (m *Memory) ReadSetting(_ context.Context, key Key) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failReads[key]; err != nil {
		return Value{}, err
	}
	if v, ok := m.settings[key]; ok {
		return v, nil
	}
	return Absent(), nil
}

func (m *Memory) WriteSetting(_ context.Context, key Key, val Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failWrites[key]; err != nil {
		return err
	}

	m.writes = append(m.writes, fmt.Sprintf("%s=%s", key, val))
	if val.IsAbsent() {
		delete(m.settings, key)
		return nil
	}
	m.settings[key] = val
	return nil
}

func (m *Memory) Subkeys(_ context.Context, key Key) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.children[key]), nil
}

func (m *Memory) ReadService(_ context.Context, name string) (ServiceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failService[name]; err != nil {
		return ServiceState{}, err
	}
	st, ok := m.services[name]
	if !ok {
		return ServiceState{}, fmt.Errorf("service %q: %w", name, ErrServiceNotFound)
	}
	return st, nil
}

func (m *Memory) SetService(_ context.Context, name string, target ServiceState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failService[name]; err != nil {
		return err
	}
	if _, ok := m.services[name]; !ok {
		return fmt.Errorf("service %q: %w", name, ErrServiceNotFound)
	}

	m.writes = append(m.writes, fmt.Sprintf("service:%s=%s running=%t", name, target.StartMode, target.Running))
	m.services[name] = target
	return nil
}

func (m *Memory) ClearCache(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failClear[path]; err != nil {
		return err
	}
	m.cleared = append(m.cleared, path)
	return nil
}

// Seed sets the stored value for a setting without recording a write.
func (m *Memory) Seed(key Key, val Value) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if val.IsAbsent() {
		delete(m.settings, key)
		return
	}
	m.settings[key] = val
}

// SeedSubkeys sets the child key names reported under key.
func (m *Memory) SeedSubkeys(key Key, names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children[key] = slices.Clone(names)
}

// SeedService registers a service with the given state.
func (m *Memory) SeedService(name string, st ServiceState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[name] = st
}

// Setting returns the stored value for key, Absent if none.
func (m *Memory) Setting(key Key) Value {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.settings[key]; ok {
		return v
	}
	return Absent()
}

// Service returns the stored state of a service and whether it exists.
func (m *Memory) Service(name string) (ServiceState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.services[name]
	return st, ok
}

// Cleared returns the cache paths passed to ClearCache, in order.
func (m *Memory) Cleared() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cleared)
}

// Writes returns a human-readable log of every mutation, in order.
func (m *Memory) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.writes)
}

// FailRead makes ReadSetting on key return err.
func (m *Memory) FailRead(key Key, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReads[key] = err
}

// FailWrite makes WriteSetting on key return err.
func (m *Memory) FailWrite(key Key, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites[key] = err
}

// FailService makes ReadService and SetService on name return err.
func (m *Memory) FailService(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failService[name] = err
}

// FailClear makes ClearCache on path return err.
func (m *Memory) FailClear(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failClear[path] = err
}
