// Package privilege reports the effective privilege level of the
// current process. Tweaks that touch machine-wide state are skipped,
// never attempted, when the process is not elevated.
package privilege

// Gate answers whether the process may perform operations that need
// elevated rights. Implementations are pure queries; nothing here
// requests or escalates privileges.
type Gate interface {
	IsElevated() bool
}

// Static is a Gate pinned to a fixed answer, for tests and simulated
// runs.
type Static bool

func (s Static) IsElevated() bool { return bool(s) }

// OS returns the gate for the running process.
func OS() Gate { return osGate{} }
