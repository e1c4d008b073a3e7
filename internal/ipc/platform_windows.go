//go:build windows

package ipc

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

// Winsock codes reported by AF_UNIX sockets on Windows.
const (
	wsaeaddrinuse   = syscall.Errno(10048)
	wsaeconnrefused = syscall.Errno(10061)
)

// isAddrInUse reports whether a bind failed because the path already exists.
func isAddrInUse(err error) bool {
	return errors.Is(err, wsaeaddrinuse)
}

// isStaleDial reports whether a dial failure means nobody is listening.
func isStaleDial(err error) bool {
	return errors.Is(err, wsaeconnrefused) ||
		errors.Is(err, windows.ERROR_FILE_NOT_FOUND) ||
		errors.Is(err, windows.ERROR_PATH_NOT_FOUND)
}

// restrictSocket is a no-op: the socket inherits the ACL of the per-user
// LOCALAPPDATA directory.
func restrictSocket(string) error {
	return nil
}
