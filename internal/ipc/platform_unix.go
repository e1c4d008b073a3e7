//go:build !windows

package ipc

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// isAddrInUse reports whether a bind failed because the path already exists.
func isAddrInUse(err error) bool {
	return errors.Is(err, unix.EADDRINUSE)
}

// isStaleDial reports whether a dial failure means nobody is listening:
// the file is a leftover socket (or not a socket at all), or it vanished
// between the failed bind and the dial.
func isStaleDial(err error) bool {
	return errors.Is(err, unix.ECONNREFUSED) || errors.Is(err, unix.ENOENT)
}

// restrictSocket limits the socket file to its owner.
func restrictSocket(path string) error {
	return os.Chmod(path, 0600)
}
