//go:build unix

package sys

import "golang.org/x/sys/unix"

func privateSocketUmask() func() {
	old := unix.Umask(0077)
	return func() { unix.Umask(old) }
}
