//go:build !unix && !windows

package file

import (
	"os"

	"github.com/gobeaver/drivekit"
)

func lockFile(*os.File, lockType) error {
	return drivekit.ErrNotSupported
}

func unlockFile(*os.File) error {
	return drivekit.ErrNotSupported
}
