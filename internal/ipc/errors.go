package ipc

import (
	"errors"
)

// Sentinel errors. Callers match them with errors.Is; the wrapped chain
// still carries the underlying syscall error.
var (
	// ErrAddressInUse means another process (or a stale file) occupies the socket path.
	ErrAddressInUse = errors.New("endpoint address already in use")

	// ErrStaleEndpoint means the socket path exists but nothing accepts connections on it.
	ErrStaleEndpoint = errors.New("endpoint is stale")

	// ErrInvalidPayload means an activation message is malformed.
	ErrInvalidPayload = errors.New("invalid activation payload")

	// ErrPayloadTooLarge means an activation message exceeds the size cap.
	ErrPayloadTooLarge = errors.New("activation payload too large")

	// ErrUnsupportedVersion means the message was written by an incompatible build.
	ErrUnsupportedVersion = errors.New("unsupported activation protocol version")
)
