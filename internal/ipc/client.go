package ipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rescale/singleinstance/internal/constants"
)

// Client hands activation arguments to the leader listening on a socket path.
type Client struct {
	timeout    time.Duration
	socketPath string
}

// NewClientWithPath creates a new client for the socket at socketPath.
func NewClientWithPath(socketPath string) *Client {
	return &Client{
		timeout:    constants.DialTimeout,
		socketPath: socketPath,
	}
}

// SetTimeout sets the connection and write timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// connect establishes a connection to the Unix socket. Failures that mean
// nobody is listening are wrapped with ErrStaleEndpoint.
func (c *Client) connect(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{
		Timeout: c.timeout,
	}

	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("connect to %s: %w", c.socketPath, ctxErr)
		}
		if isStaleDial(err) {
			return nil, fmt.Errorf("%w: %s: %w", ErrStaleEndpoint, c.socketPath, err)
		}
		return nil, fmt.Errorf("failed to connect to leader at %s: %w", c.socketPath, err)
	}

	return conn, nil
}

// Forward sends args to the leader as one activation message. The
// connection is closed right after the write so the leader sees the
// message boundary.
func (c *Client) Forward(ctx context.Context, args []string) error {
	payload, err := Encode(args)
	if err != nil {
		return fmt.Errorf("failed to encode activation: %w", err)
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout())); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if _, err := conn.Write(payload); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send activation to %s: %w", c.socketPath, err)
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close activation connection: %w", err)
	}
	return nil
}

// Probe checks whether a leader accepts connections, without activating it.
func (c *Client) Probe(ctx context.Context) error {
	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *Client) writeTimeout() time.Duration {
	if c.timeout > 0 && c.timeout < constants.WriteTimeout {
		return c.timeout
	}
	return constants.WriteTimeout
}
