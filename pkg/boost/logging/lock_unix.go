//go:build !windows

package logging

import "syscall"

// lock takes an exclusive advisory lock on the log file for the
// duration of one write.
func (w *RotatingWriter) lock() error {
	return syscall.Flock(int(w.file.Fd()), syscall.LOCK_EX)
}

func (w *RotatingWriter) unlock() {
	_ = syscall.Flock(int(w.file.Fd()), syscall.LOCK_UN)
}
