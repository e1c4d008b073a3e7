// Package instance enforces single-instance semantics for a desktop application.
//
// The first process to claim the rendezvous socket becomes the leader and
// keeps listening for later launches. Every later process becomes a
// follower: it forwards its launch arguments to the leader and should exit.
// A socket left behind by a crashed leader is detected (nothing answers),
// removed and re-claimed, up to a caller-supplied retry budget.
//
// Typical use:
//
//	c := instance.NewCoordinator(loc, onActivate, instance.WithLogger(logger))
//	role, err := c.Setup(ctx, os.Args[1:], constants.DefaultRetryBudget)
//	if err != nil {
//		return err
//	}
//	if role.ShouldExit() {
//		os.Exit(0)
//	}
//	defer c.Shutdown()
package instance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rescale/singleinstance/internal/constants"
	"github.com/rescale/singleinstance/internal/endpoint"
	"github.com/rescale/singleinstance/internal/events"
	"github.com/rescale/singleinstance/internal/ipc"
	"github.com/rescale/singleinstance/internal/logging"
)

// Coordinator errors
var (
	// ErrRetriesExhausted is returned when the endpoint stayed stale after the
	// whole retry budget was spent. The caller must assume neither role.
	ErrRetriesExhausted = errors.New("stale endpoint recovery attempts exhausted")

	// ErrAlreadySetup is returned when Setup is called twice on one Coordinator.
	ErrAlreadySetup = errors.New("coordinator already set up")

	// ErrInvalidRetryBudget is returned for a negative retry budget.
	ErrInvalidRetryBudget = errors.New("retry budget must not be negative")
)

// ActivationFunc receives the arguments forwarded by one follower. It runs
// on the listener goroutine, never concurrently with itself, but
// concurrently with the rest of the application.
type ActivationFunc func(args []string)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventBus publishes role, stale-endpoint, activation and shutdown events.
func WithEventBus(bus *events.EventBus) Option {
	return func(c *Coordinator) {
		c.eventBus = bus
	}
}

// WithDialTimeout bounds how long a follower waits to reach the leader.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// Coordinator runs the leader/follower protocol for one endpoint.
type Coordinator struct {
	location    endpoint.Location
	callback    ActivationFunc
	logger      *logging.Logger
	eventBus    *events.EventBus
	dialTimeout time.Duration

	mu     sync.Mutex
	role   Role
	setup  bool
	server *ipc.Server

	shutdownOnce sync.Once
}

// NewCoordinator creates a coordinator for loc. callback may be nil when the
// application only needs the exclusivity guarantee.
func NewCoordinator(loc endpoint.Location, callback ActivationFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		location:    loc,
		callback:    callback,
		logger:      logging.NewNopLogger(),
		dialTimeout: constants.DialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("coordinator")
	return c
}

// Location returns the endpoint this coordinator claims or forwards to.
func (c *Coordinator) Location() endpoint.Location {
	return c.location
}

// Role returns the role determined by Setup, or RoleUndetermined.
func (c *Coordinator) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// Setup claims the endpoint or hands args to the process that holds it.
//
// RoleLeader: this process owns the endpoint and the listener is running;
// the caller continues and must eventually call Shutdown.
// RoleFollower: args were delivered to the leader; the caller should exit.
//
// A stale endpoint is removed and the claim retried at most retryBudget
// times. When the budget runs out the returned error wraps
// ErrRetriesExhausted together with the last connection error.
func (c *Coordinator) Setup(ctx context.Context, args []string, retryBudget int) (Role, error) {
	if retryBudget < 0 {
		return RoleUndetermined, fmt.Errorf("%w: %d", ErrInvalidRetryBudget, retryBudget)
	}
	if c.location.IsZero() {
		return RoleUndetermined, errors.New("coordinator has no endpoint location")
	}

	c.mu.Lock()
	if c.setup {
		c.mu.Unlock()
		return RoleUndetermined, ErrAlreadySetup
	}
	c.setup = true
	c.mu.Unlock()

	path := c.location.Path
	if err := os.MkdirAll(c.location.Dir, constants.EndpointDirPerm); err != nil {
		c.logger.Error().Err(err).Str("dir", c.location.Dir).Msg("Failed to create endpoint directory")
		return RoleUndetermined, fmt.Errorf("failed to create endpoint directory: %w", err)
	}

	client := ipc.NewClientWithPath(path)
	client.SetTimeout(c.dialTimeout)

	remaining := retryBudget
	for {
		c.logger.Debug().Str("socket", path).Int("retries_left", remaining).Msg("Acquiring the socket")

		server := ipc.NewServerWithPath(c.deliver, c.logger.WithComponent("ipc"), path)
		err := server.Start()
		if err == nil {
			c.becomeLeader(server)
			return RoleLeader, nil
		}

		if !errors.Is(err, ipc.ErrAddressInUse) {
			c.logger.Error().Err(err).Str("socket", path).Msg("Failed to open the socket")
			return RoleUndetermined, err
		}

		c.logger.Debug().Str("socket", path).Msg("The socket is already in use, connecting")

		// Remember which file we found so recovery never deletes a socket
		// created by a process that won the race in the meantime. A nil
		// observed means another launch already removed it.
		observed, statErr := os.Lstat(path)
		if statErr != nil && !os.IsNotExist(statErr) {
			c.logger.Error().Err(statErr).Str("socket", path).Msg("Failed to inspect the socket")
			return RoleUndetermined, fmt.Errorf("failed to inspect socket: %w", statErr)
		}

		fwdErr := client.Forward(ctx, args)
		if fwdErr == nil {
			c.becomeFollower()
			return RoleFollower, nil
		}

		if !errors.Is(fwdErr, ipc.ErrStaleEndpoint) {
			c.logger.Error().Err(fwdErr).Str("socket", path).Msg("Failed to hand arguments to the running instance")
			return RoleUndetermined, fwdErr
		}

		if remaining == 0 {
			c.logger.Error().Err(fwdErr).Str("socket", path).
				Msg("Unable to either open or connect to the socket; delete the socket file and try again")
			return RoleUndetermined, fmt.Errorf("%w (budget %d): %w", ErrRetriesExhausted, retryBudget, fwdErr)
		}
		remaining--

		if c.confirmAlive(ctx, client) {
			c.logger.Debug().Str("socket", path).Msg("The socket started answering, retrying")
			continue
		}
		if err := ctx.Err(); err != nil {
			return RoleUndetermined, err
		}

		c.logger.Warn().Str("socket", path).Int("retries_left", remaining).Msg("The socket is stale, deleting and retrying")
		c.removeStale(path, observed)
		if c.eventBus != nil {
			c.eventBus.Publish(&events.StaleEndpointEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventStaleEndpoint, Time: time.Now()},
				Endpoint:  path,
				Remaining: remaining,
			})
		}
	}
}

// confirmAlive waits briefly and probes the endpoint again.
func (c *Coordinator) confirmAlive(ctx context.Context, client *ipc.Client) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(constants.StaleConfirmDelay):
	}
	return client.Probe(ctx) == nil
}

// removeStale deletes the stale entry if it is still the file seen before
// the failed connection attempt. Nothing is deleted when no file was seen.
func (c *Coordinator) removeStale(path string, observed os.FileInfo) {
	if observed == nil {
		c.logger.Debug().Str("socket", path).Msg("Socket disappeared before recovery, retrying without deleting")
		return
	}
	current, err := os.Lstat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("socket", path).Msg("Failed to inspect stale socket")
		}
		return
	}
	if !sameEntry(current, observed) {
		c.logger.Debug().Str("socket", path).Msg("Socket was replaced while recovering, not deleting")
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn().Err(err).Str("socket", path).Msg("Failed to delete stale socket")
	}
}

// sameEntry reports whether a and b describe the same directory entry.
// Inode numbers are reused, so the type and modification time must match too.
func sameEntry(a, b os.FileInfo) bool {
	return os.SameFile(a, b) && a.Mode().Type() == b.Mode().Type() && a.ModTime().Equal(b.ModTime())
}

func (c *Coordinator) becomeLeader(server *ipc.Server) {
	c.mu.Lock()
	c.role = RoleLeader
	c.server = server
	c.mu.Unlock()

	c.logger.Info().Str("socket", c.location.Path).Msg("This is the first instance, accepting incoming connections")
	if c.eventBus != nil {
		c.eventBus.PublishRole(RoleLeader.String(), c.location.Path)
	}
}

func (c *Coordinator) becomeFollower() {
	c.mu.Lock()
	c.role = RoleFollower
	c.mu.Unlock()

	c.logger.Debug().Str("socket", c.location.Path).Msg("This is a second instance, arguments sent to the first instance")
	if c.eventBus != nil {
		c.eventBus.PublishRole(RoleFollower.String(), c.location.Path)
	}
}

// deliver is the listener's activation handler.
func (c *Coordinator) deliver(args []string) {
	if c.eventBus != nil {
		c.eventBus.PublishActivation(uuid.NewString(), args)
	}
	if c.callback != nil {
		c.callback(args)
	}
}

// Done is closed when the leader's listener has exited. For a follower or
// an undetermined coordinator it is already closed.
func (c *Coordinator) Done() <-chan struct{} {
	c.mu.Lock()
	server := c.server
	c.mu.Unlock()

	if server == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return server.Done()
}

// Shutdown stops the listener and releases the endpoint so a later launch
// can claim it. It is idempotent and a no-op unless this process is the
// leader. Failures are logged, never returned.
func (c *Coordinator) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		server := c.server
		c.mu.Unlock()

		if server == nil {
			return
		}

		server.Stop()
		c.logger.Info().Str("socket", c.location.Path).Msg("Released the socket")

		if c.eventBus != nil {
			c.eventBus.Publish(&events.ShutdownEvent{
				BaseEvent:   events.BaseEvent{EventType: events.EventShutdown, Time: time.Now()},
				Endpoint:    c.location.Path,
				Activations: server.Served(),
			})
		}
	})
}

// Close calls Shutdown. It always returns nil and exists so a Coordinator
// can be used as an io.Closer.
func (c *Coordinator) Close() error {
	c.Shutdown()
	return nil
}

// ShutdownOnDone calls Shutdown once ctx is cancelled. Use it with a
// signal-aware context so the endpoint is released on SIGINT/SIGTERM.
func (c *Coordinator) ShutdownOnDone(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			c.Shutdown()
		case <-c.Done():
		}
	}()
}
