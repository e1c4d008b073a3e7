package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/singleinstance/internal/constants"
	"github.com/rescale/singleinstance/internal/logging"
)

// ActivationHandler receives the arguments of one follower hand-off.
// It runs on the server's accept goroutine, one call at a time.
type ActivationHandler func(args []string)

// Server owns the claimed socket and serves follower connections.
type Server struct {
	handler    ActivationHandler
	logger     *logging.Logger
	socketPath string

	listener *net.UnixListener
	created  os.FileInfo // socket file as created by Start

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu     sync.Mutex
	active net.Conn

	readTimeout time.Duration
	maxPayload  int
	served      atomic.Int64

	stopOnce sync.Once
}

// NewServerWithPath creates a server for the socket at socketPath.
// Nothing is claimed until Start.
func NewServerWithPath(handler ActivationHandler, logger *logging.Logger, socketPath string) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		handler:     handler,
		logger:      logger,
		socketPath:  socketPath,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		readTimeout: constants.ActivationReadTimeout,
		maxPayload:  constants.MaxActivationPayload,
	}
}

// SetReadTimeout overrides the per-connection read deadline.
func (s *Server) SetReadTimeout(d time.Duration) {
	s.readTimeout = d
}

// Start claims the socket path and begins accepting connections in the
// background. If the path already exists the returned error wraps
// ErrAddressInUse; any other error is a failure to claim the endpoint.
func (s *Server) Start() error {
	addr := &net.UnixAddr{Name: s.socketPath, Net: "unix"}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		if isAddrInUse(err) {
			return fmt.Errorf("%w: %s: %w", ErrAddressInUse, s.socketPath, err)
		}
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}

	// The socket file is removed by Stop, and only if it is still ours.
	listener.SetUnlinkOnClose(false)
	if fi, err := os.Lstat(s.socketPath); err == nil {
		s.created = fi
	}

	if err := restrictSocket(s.socketPath); err != nil {
		listener.Close()
		s.removeSocket()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener

	s.running.Store(true)
	s.logger.Info().Str("socket", s.socketPath).Msg("Activation listener started")

	go s.acceptLoop()
	return nil
}

// Stop stops the accept loop and releases the socket. It is safe to call
// more than once and on a server that never started. Stop waits for the
// loop to exit for at most ListenerStopTimeout.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		s.cancel()

		if s.listener == nil {
			close(s.done)
			return
		}

		s.logger.Debug().Str("socket", s.socketPath).Msg("Stopping activation listener")

		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn().Err(err).Msg("Failed to close activation listener")
		}

		// Unblock a read in progress.
		s.mu.Lock()
		if s.active != nil {
			_ = s.active.SetDeadline(time.Now())
		}
		s.mu.Unlock()

		s.removeSocket()

		select {
		case <-s.done:
			s.logger.Info().Int64("activations", s.served.Load()).Msg("Activation listener stopped")
		case <-time.After(constants.ListenerStopTimeout):
			s.logger.Warn().Dur("timeout", constants.ListenerStopTimeout).Msg("Activation handler still running after stop timeout")
		}
	})
}

// Done is closed when the accept loop has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Served returns the number of activations delivered to the handler.
func (s *Server) Served() int64 {
	return s.served.Load()
}

// removeSocket deletes the socket file unless it has been replaced by
// another process since Start.
func (s *Server) removeSocket() {
	current, err := os.Lstat(s.socketPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("socket", s.socketPath).Msg("Failed to inspect socket file")
		}
		return
	}
	if s.created != nil && !os.SameFile(current, s.created) {
		s.logger.Warn().Str("socket", s.socketPath).Msg("Socket file was replaced by another process; leaving it in place")
		return
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("socket", s.socketPath).Msg("Failed to remove socket file")
	}
}

// acceptLoop accepts follower connections until Stop.
func (s *Server) acceptLoop() {
	defer close(s.done)

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				s.logger.Warn().Msg("Activation listener closed unexpectedly")
				return
			}
			// Transient failure (e.g. out of file descriptors): back off and retry.
			s.logger.Warn().Err(err).Msg("Failed to accept activation connection")
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(constants.AcceptRetryDelay):
			}
			continue
		}

		s.handleConnection(conn)
	}
}

// handleConnection reads one activation message and delivers it.
func (s *Server) handleConnection(conn net.Conn) {
	s.setActive(conn)
	defer func() {
		s.setActive(nil)
		conn.Close()
	}()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Activation handler panicked")
		}
	}()

	if s.readTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to set read deadline")
			return
		}
	}

	payload, err := readPayload(conn, s.maxPayload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read activation")
		return
	}
	if len(payload) == 0 {
		s.logger.Debug().Msg("Received liveness probe")
		return
	}

	args, err := Decode(payload)
	if err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(payload)).Msg("Failed to decode activation")
		return
	}

	s.served.Add(1)
	s.logger.Info().Strs("args", args).Msg("Received args from another instance")
	if s.handler != nil {
		s.handler(args)
	}
}

func (s *Server) setActive(conn net.Conn) {
	s.mu.Lock()
	s.active = conn
	s.mu.Unlock()
}

// readPayload reads r to end-of-stream, refusing more than max bytes.
func readPayload(r io.Reader, max int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, max)
	}
	return data, nil
}
