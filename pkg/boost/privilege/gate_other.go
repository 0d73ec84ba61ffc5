//go:build !windows

package privilege

import "os"

type osGate struct{}

// IsElevated treats root as elevated so development on non-Windows
// machines exercises both engine paths.
func (osGate) IsElevated() bool {
	return os.Geteuid() == 0
}
