package constants

import (
	"time"
)

// Endpoint claim and recovery
const (
	// DefaultRetryBudget - stale endpoint recovery attempts per Setup call
	DefaultRetryBudget = 2

	// MaxRetryBudget - upper bound accepted from configuration
	MaxRetryBudget = 10

	// EndpointDirPerm - permissions for the directory holding the socket
	EndpointDirPerm = 0700

	// SocketFileSuffix - suffix appended to the sanitized application identifier
	SocketFileSuffix = ".sock"

	// StaleConfirmDelay - pause before re-probing a refused endpoint (50ms)
	// A leader that has bound but not yet started listening refuses
	// connections for a moment.
	StaleConfirmDelay = 50 * time.Millisecond
)

// Follower hand-off
const (
	// DialTimeout - how long a follower waits to connect to the leader (5 seconds)
	DialTimeout = 5 * time.Second

	// WriteTimeout - deadline for writing the activation payload (5 seconds)
	WriteTimeout = 5 * time.Second
)

// Listener loop
const (
	// AcceptRetryDelay - back-off after a transient accept failure (100ms)
	AcceptRetryDelay = 100 * time.Millisecond

	// ActivationReadTimeout - per-connection deadline for reading a payload (5 seconds)
	// Connections are served one at a time, so a silent follower must not
	// hold the loop forever.
	ActivationReadTimeout = 5 * time.Second

	// ListenerStopTimeout - how long Shutdown waits for the loop to exit (2 seconds)
	ListenerStopTimeout = 2 * time.Second

	// MaxActivationPayload - largest accepted activation message (1 MiB)
	MaxActivationPayload = 1 << 20
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels (256)
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size (4096)
	EventBusMaxBuffer = 4096
)

// CLI presentation
const (
	// SpinnerRefreshInterval - redraw interval for the "running" spinner (100ms)
	SpinnerRefreshInterval = 100 * time.Millisecond
)
