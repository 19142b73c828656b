//go:build unix

package file

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes a flock(2) advisory lock on the whole file. It blocks until
// the lock is granted and is not retried on failure.
func lockFile(f *os.File, how lockType) error {
	op := unix.LOCK_SH
	if how == lockExclusive {
		op = unix.LOCK_EX
	}
	return unix.Flock(int(f.Fd()), op)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
