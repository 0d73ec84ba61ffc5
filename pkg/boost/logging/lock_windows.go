//go:build windows

package logging

import "golang.org/x/sys/windows"

// lock takes an exclusive lock over the whole file for the duration of
// one write. An elevated and an unelevated arcboost may share the file.
func (w *RotatingWriter) lock() error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(w.file.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK, 0, ^uint32(0), ^uint32(0), ol)
}

func (w *RotatingWriter) unlock() {
	ol := new(windows.Overlapped)
	_ = windows.UnlockFileEx(windows.Handle(w.file.Fd()),
		0, ^uint32(0), ^uint32(0), ol)
}
