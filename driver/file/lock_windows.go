//go:build windows

package file

import (
	"math"
	"os"

	"golang.org/x/sys/windows"
)

// lockFile locks the whole file with LockFileEx. Windows locks are
// mandatory rather than advisory, which is stricter but compatible.
func lockFile(f *os.File, how lockType) error {
	var flags uint32
	if how == lockExclusive {
		flags = windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, math.MaxUint32, math.MaxUint32, ol)
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, math.MaxUint32, math.MaxUint32, ol)
}
