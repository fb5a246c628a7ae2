// Package sys provide system utilities with the same API across OSes.
package sys

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsATTY determines whether the given file is a terminal.
func IsATTY(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsATTYFile is like IsATTY, but takes an *os.File. A nil file is never a
// terminal.
func IsATTYFile(f *os.File) bool {
	return f != nil && IsATTY(f.Fd())
}

// PrivateSocketUmask sets the umask so that sockets created afterwards are
// only accessible by the current user, and returns a function that restores
// the old umask. It is a no-op on systems without umask.
func PrivateSocketUmask() (restore func()) {
	return privateSocketUmask()
}
