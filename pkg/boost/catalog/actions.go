package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jamesainslie/arcboost/pkg/boost/ops"
)

// ErrOneWay is returned by Undo on actions that cannot be reversed.
var ErrOneWay = errors.New("action is one-way")

// Action is the behavior half of a tweak: how to apply it and how to
// put the captured prior state back.
//
// Apply must leave the system unchanged when it returns an error: an
// action that writes several settings rolls back the ones it already
// wrote before failing.
type Action interface {
	// Apply performs the change and returns an opaque capture of what
	// was there before, suitable for a later Undo. One-way actions
	// return a nil capture.
	Apply(ctx context.Context, x ops.Executor) (json.RawMessage, error)

	// Undo reverts the change using a capture produced by Apply.
	Undo(ctx context.Context, x ops.Executor, prior json.RawMessage) error
}

// SettingChange pairs a setting key with the value to write.
type SettingChange struct {
	Key   ops.Key
	Value ops.Value
}

// capturedSetting is one recorded key/value pair. The key travels with
// the capture so a record entry stays meaningful even if the catalog
// definition changes between versions.
type capturedSetting struct {
	Key   ops.Key   `json:"key"`
	Value ops.Value `json:"value"`
}

// SettingsAction writes a fixed set of setting values, capturing each
// key's previous value first.
type SettingsAction struct {
	Changes []SettingChange
}

func (a SettingsAction) Apply(ctx context.Context, x ops.Executor) (json.RawMessage, error) {
	captured := make([]capturedSetting, 0, len(a.Changes))
	for _, ch := range a.Changes {
		prev, err := x.ReadSetting(ctx, ch.Key)
		if err != nil {
			return nil, fmt.Errorf("capture %s: %w", ch.Key, err)
		}
		captured = append(captured, capturedSetting{Key: ch.Key, Value: prev})
	}

	for i, ch := range a.Changes {
		if err := x.WriteSetting(ctx, ch.Key, ch.Value); err != nil {
			rollbackSettings(ctx, x, captured[:i])
			return nil, fmt.Errorf("write %s: %w", ch.Key, err)
		}
	}

	return json.Marshal(captured)
}

func (a SettingsAction) Undo(ctx context.Context, x ops.Executor, prior json.RawMessage) error {
	var captured []capturedSetting
	if err := json.Unmarshal(prior, &captured); err != nil {
		return fmt.Errorf("decode capture: %w", err)
	}

	for _, c := range captured {
		if err := x.WriteSetting(ctx, c.Key, c.Value); err != nil {
			return fmt.Errorf("restore %s: %w", c.Key, err)
		}
	}
	return nil
}

// rollbackSettings best-effort restores captures after a partial apply.
// The original write error is what the caller reports.
func rollbackSettings(ctx context.Context, x ops.Executor, captured []capturedSetting) {
	for _, c := range captured {
		_ = x.WriteSetting(ctx, c.Key, c.Value)
	}
}

// NamedValue pairs a registry value name with the value to write.
type NamedValue struct {
	Name  string
	Value ops.Value
}

// capturedSubkey records the prior values written under one child key.
type capturedSubkey struct {
	Subkey string            `json:"subkey"`
	Values []capturedSetting `json:"values"`
}

// FanoutAction writes the same named values under every immediate child
// of a base registry key. The child set is enumerated at apply time, so
// the capture records which children existed and what each held.
type FanoutAction struct {
	Base ops.Key
	Sets []NamedValue
}

func (a FanoutAction) Apply(ctx context.Context, x ops.Executor) (json.RawMessage, error) {
	subs, err := x.Subkeys(ctx, a.Base)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", a.Base, err)
	}

	captured := make([]capturedSubkey, 0, len(subs))
	for _, sub := range subs {
		child := a.Base.Subkey(sub)
		values := make([]capturedSetting, 0, len(a.Sets))
		for _, nv := range a.Sets {
			key := child.Named(nv.Name)
			prev, err := x.ReadSetting(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("capture %s: %w", key, err)
			}
			values = append(values, capturedSetting{Key: key, Value: prev})
		}
		captured = append(captured, capturedSubkey{Subkey: sub, Values: values})
	}

	var done []capturedSetting
	for _, sub := range captured {
		for i, nv := range a.Sets {
			key := a.Base.Subkey(sub.Subkey).Named(nv.Name)
			if err := x.WriteSetting(ctx, key, nv.Value); err != nil {
				rollbackSettings(ctx, x, done)
				return nil, fmt.Errorf("write %s: %w", key, err)
			}
			done = append(done, sub.Values[i])
		}
	}

	return json.Marshal(captured)
}

func (a FanoutAction) Undo(ctx context.Context, x ops.Executor, prior json.RawMessage) error {
	var captured []capturedSubkey
	if err := json.Unmarshal(prior, &captured); err != nil {
		return fmt.Errorf("decode capture: %w", err)
	}

	for _, sub := range captured {
		for _, c := range sub.Values {
			if err := x.WriteSetting(ctx, c.Key, c.Value); err != nil {
				return fmt.Errorf("restore %s: %w", c.Key, err)
			}
		}
	}
	return nil
}

// ServiceAction puts a service into a target start mode and run state,
// capturing how the service was configured before.
type ServiceAction struct {
	Name   string
	Target ops.ServiceState
}

func (a ServiceAction) Apply(ctx context.Context, x ops.Executor) (json.RawMessage, error) {
	prev, err := x.ReadService(ctx, a.Name)
	if err != nil {
		return nil, fmt.Errorf("capture service %s: %w", a.Name, err)
	}
	if err := x.SetService(ctx, a.Name, a.Target); err != nil {
		return nil, fmt.Errorf("configure service %s: %w", a.Name, err)
	}
	return json.Marshal(prev)
}

func (a ServiceAction) Undo(ctx context.Context, x ops.Executor, prior json.RawMessage) error {
	var prev ops.ServiceState
	if err := json.Unmarshal(prior, &prev); err != nil {
		return fmt.Errorf("decode capture: %w", err)
	}
	if err := x.SetService(ctx, a.Name, prev); err != nil {
		return fmt.Errorf("restore service %s: %w", a.Name, err)
	}
	return nil
}

// PowerSchemeAction activates a power scheme by GUID, capturing the
// scheme that was active before.
type PowerSchemeAction struct {
	Scheme string
}

func (a PowerSchemeAction) Apply(ctx context.Context, x ops.Executor) (json.RawMessage, error) {
	prev, err := x.ReadSetting(ctx, ops.PowerSchemeKey())
	if err != nil {
		return nil, fmt.Errorf("capture power scheme: %w", err)
	}
	if err := x.WriteSetting(ctx, ops.PowerSchemeKey(), ops.String(a.Scheme)); err != nil {
		return nil, err
	}
	return json.Marshal(prev)
}

func (a PowerSchemeAction) Undo(ctx context.Context, x ops.Executor, prior json.RawMessage) error {
	var prev ops.Value
	if err := json.Unmarshal(prior, &prev); err != nil {
		return fmt.Errorf("decode capture: %w", err)
	}
	return x.WriteSetting(ctx, ops.PowerSchemeKey(), prev)
}

// PurgeAction clears the contents of a set of cache directories. There
// is no way to put deleted cache files back, so Apply captures nothing
// and Undo always fails.
type PurgeAction struct {
	Paths []string
}

func (a PurgeAction) Apply(ctx context.Context, x ops.Executor) (json.RawMessage, error) {
	for _, p := range a.Paths {
		if err := x.ClearCache(ctx, p); err != nil {
			return nil, fmt.Errorf("clear %s: %w", p, err)
		}
	}
	return nil, nil
}

func (a PurgeAction) Undo(_ context.Context, _ ops.Executor, _ json.RawMessage) error {
	return ErrOneWay
}
