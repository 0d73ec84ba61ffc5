// Package ops defines the operation surface the tweak engine drives:
// named system settings (registry values and the active power scheme),
// Windows service state, and cache directory purges.
//
// Executor is the single abstraction catalog actions talk to. The
// Windows implementation (NewOS on windows builds) performs real system
// changes; Memory is an in-memory double for tests and simulated runs.
//
// Basic usage:
//
//	x := ops.NewOS()
//	key := ops.RegistryKey(ops.HiveCurrentUser, `Software\Microsoft\GameBar`, "AutoGameModeEnabled")
//	prev, err := x.ReadSetting(ctx, key)
//	if err != nil {
//		return err
//	}
//	if err := x.WriteSetting(ctx, key, ops.DWord(1)); err != nil {
//		return err
//	}
package ops

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned by the OS executor on platforms without
	// a registry, a service control manager, or power schemes.
	ErrUnsupported = errors.New("not supported on this platform")

	// ErrServiceNotFound indicates the named service is not installed.
	ErrServiceNotFound = errors.New("service not found")
)

// KeyKind identifies the namespace a Key addresses.
type KeyKind string

const (
	// KindRegistry addresses a named value under a registry path.
	KindRegistry KeyKind = "registry"

	// KindPower addresses the active power scheme. The associated value
	// is the scheme GUID as a string.
	KindPower KeyKind = "power"
)

// Registry hive names accepted in Key.Hive.
const (
	HiveCurrentUser  = "HKCU"
	HiveLocalMachine = "HKLM"
)

// Key names a single system setting. Registry keys carry a hive, a key
// path, and a value name. Power keys carry nothing else; there is only
// one active scheme.
type Key struct {
	Kind KeyKind `json:"kind"`
	Hive string  `json:"hive,omitempty"`
	Path string  `json:"path,omitempty"`
	Name string  `json:"name,omitempty"`
}

// RegistryKey builds a Key for a named registry value.
func RegistryKey(hive, path, name string) Key {
	return Key{Kind: KindRegistry, Hive: hive, Path: path, Name: name}
}

// PowerSchemeKey builds the Key for the active power scheme.
func PowerSchemeKey() Key {
	return Key{Kind: KindPower}
}

// Subkey returns the key for a child of k's registry path, keeping the
// hive and dropping any value name.
func (k Key) Subkey(name string) Key {
	return Key{Kind: k.Kind, Hive: k.Hive, Path: k.Path + `\` + name}
}

// Named returns a copy of k addressing the given value name.
func (k Key) Named(name string) Key {
	k.Name = name
	return k
}

// String renders the key in the familiar regedit style.
func (k Key) String() string {
	if k.Kind == KindPower {
		return "power:active-scheme"
	}
	if k.Name == "" {
		return k.Hive + `\` + k.Path
	}
	return k.Hive + `\` + k.Path + `\` + k.Name
}

// ValueKind identifies the type of a setting value.
type ValueKind string

const (
	// ValueAbsent marks a value that does not exist. Reading a missing
	// value yields it; writing it deletes the value.
	ValueAbsent ValueKind = "absent"

	// ValueDWord is a 32-bit unsigned integer (REG_DWORD).
	ValueDWord ValueKind = "dword"

	// ValueString is a string (REG_SZ), also used for scheme GUIDs.
	ValueString ValueKind = "string"
)

// Value is a tagged setting value. The zero Value is invalid; construct
// values with Absent, DWord, or String.
type Value struct {
	Kind  ValueKind `json:"kind"`
	DWord uint32    `json:"dword,omitempty"`
	Str   string    `json:"str,omitempty"`
}

// Absent returns the value marking a missing setting.
func Absent() Value { return Value{Kind: ValueAbsent} }

// DWord returns a 32-bit integer value.
func DWord(v uint32) Value { return Value{Kind: ValueDWord, DWord: v} }

// String returns a string value.
func String(s string) Value { return Value{Kind: ValueString, Str: s} }

// IsAbsent reports whether v marks a missing setting.
func (v Value) IsAbsent() bool { return v.Kind == ValueAbsent }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueDWord:
		return v.DWord == o.DWord
	case ValueString:
		return v.Str == o.Str
	default:
		return true
	}
}

// String renders the value for logs and reports.
func (v Value) String() string {
	switch v.Kind {
	case ValueAbsent:
		return "(absent)"
	case ValueDWord:
		return fmt.Sprintf("%d", v.DWord)
	case ValueString:
		return fmt.Sprintf("%q", v.Str)
	default:
		return fmt.Sprintf("(%s)", v.Kind)
	}
}

// StartMode is a service start configuration.
type StartMode string

const (
	StartAutomatic StartMode = "automatic"
	StartManual    StartMode = "manual"
	StartDisabled  StartMode = "disabled"
)

// ServiceState captures the two facts a tweak changes about a service:
// how it starts and whether it is running now.
type ServiceState struct {
	StartMode StartMode `json:"startMode"`
	Running   bool      `json:"running"`
}

// Executor performs the primitive system operations tweaks are built
// from. Implementations must keep each call atomic for its resource:
// a failed call leaves that resource in its previous state.
type Executor interface {
	// ReadSetting returns the current value of a setting. A missing
	// registry value or key reads as Absent, not as an error.
	ReadSetting(ctx context.Context, key Key) (Value, error)

	// WriteSetting sets a setting to val, creating missing registry
	// parent keys as needed. Writing Absent deletes the value; deleting
	// a value that does not exist is not an error.
	WriteSetting(ctx context.Context, key Key, val Value) error

	// Subkeys lists the immediate child key names under a registry key.
	// A missing key yields an empty list.
	Subkeys(ctx context.Context, key Key) ([]string, error)

	// ReadService returns the start mode and run state of a service.
	ReadService(ctx context.Context, name string) (ServiceState, error)

	// SetService reconfigures a service's start mode and starts or
	// stops it to match the target run state.
	SetService(ctx context.Context, name string, target ServiceState) error

	// ClearCache removes the contents of a cache directory, leaving the
	// directory itself in place. Missing directories and locked entries
	// are skipped.
	ClearCache(ctx context.Context, path string) error
}
