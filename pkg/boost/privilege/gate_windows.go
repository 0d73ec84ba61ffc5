//go:build windows

package privilege

import (
	"golang.org/x/sys/windows"
)

type osGate struct{}

// IsElevated checks the elevation flag on the process token. This is
// the UAC notion of elevation, which is what registry writes to HKLM
// and service control require.
func (osGate) IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
