// Package discordipc talks to the local Discord client over its IPC socket
// (a unix socket, or a named pipe on Windows).
package discordipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"radioss/internal/presence"
)

// DefaultTimeout bounds each IPC round-trip.
const DefaultTimeout = 5 * time.Second

// ErrNotConnected is returned when a call is made on a closed connection.
var ErrNotConnected = errors.New("not connected to Discord")

// User is the account Discord reports in its READY event.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args"`
	Nonce string `json:"nonce"`
}

type activityArgs struct {
	PID      int                `json:"pid"`
	Activity *presence.Activity `json:"activity,omitempty"`
}

type response struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

type errorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type readyData struct {
	User User `json:"user"`
}

// Dialer opens IPC connections. It satisfies presence.Dialer.
type Dialer struct {
	Timeout time.Duration
	Logger  *slog.Logger

	dial func(ctx context.Context) (net.Conn, error)
}

// NewDialer returns a Dialer that searches the platform's socket locations.
func NewDialer(timeout time.Duration, logger *slog.Logger) *Dialer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dialer{Timeout: timeout, Logger: logger}
	d.dial = d.dialSockets
	return d
}

// Dial opens the first reachable Discord socket.
func (d *Dialer) Dial(appID string) (presence.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()

	nc, err := d.dial(ctx)
	if err != nil {
		return nil, err
	}
	return NewConn(nc, appID, d.Timeout), nil
}

func (d *Dialer) dialSockets(ctx context.Context) (net.Conn, error) {
	var lastErr error
	for _, path := range SocketPaths() {
		nc, err := dialPath(ctx, path)
		if err == nil {
			d.Logger.Debug("opened discord ipc socket", "path", path)
			return nc, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no candidate paths")
	}
	return nil, fmt.Errorf("no Discord IPC socket found: %w", lastErr)
}

// Conn is one IPC connection. It is not safe for concurrent use; the
// presence session serializes access.
type Conn struct {
	nc      net.Conn
	appID   string
	timeout time.Duration
	pid     int
	nonce   atomic.Uint64
	closed  bool
	user    User
}

// NewConn wraps an already opened socket.
func NewConn(nc net.Conn, appID string, timeout time.Duration) *Conn {
	return &Conn{
		nc:      nc,
		appID:   appID,
		timeout: timeout,
		pid:     os.Getpid(),
	}
}

// User returns the account from the handshake.
func (c *Conn) User() User { return c.user }

// Handshake identifies the application and waits for READY.
func (c *Conn) Handshake() error {
	if c.closed {
		return ErrNotConnected
	}
	c.setDeadline()

	if err := writeFrame(c.nc, opHandshake, handshake{Version: 1, ClientID: c.appID}); err != nil {
		return err
	}

	resp, err := c.readResponse()
	if err != nil {
		return err
	}
	if resp.Evt != "READY" {
		return fmt.Errorf("unexpected handshake reply: cmd=%s evt=%s", resp.Cmd, resp.Evt)
	}

	var ready readyData
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &ready); err != nil {
			return fmt.Errorf("failed to decode ready event: %w", err)
		}
	}
	c.user = ready.User
	return nil
}

// SetActivity publishes the activity for this process.
func (c *Conn) SetActivity(activity *presence.Activity) error {
	return c.call("SET_ACTIVITY", activityArgs{PID: c.pid, Activity: activity})
}

// ClearActivity removes the activity for this process.
func (c *Conn) ClearActivity() error {
	return c.call("SET_ACTIVITY", activityArgs{PID: c.pid})
}

// Close sends the close opcode and closes the socket.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.setDeadline()

	writeErr := writeFrame(c.nc, opClose, struct{}{})
	closeErr := c.nc.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

func (c *Conn) call(cmd string, args any) error {
	if c.closed {
		return ErrNotConnected
	}
	c.setDeadline()

	nonce := strconv.FormatUint(c.nonce.Add(1), 10)
	if err := writeFrame(c.nc, opFrame, command{Cmd: cmd, Args: args, Nonce: nonce}); err != nil {
		return err
	}

	for {
		resp, err := c.readResponse()
		if err != nil {
			return err
		}
		// Events arrive without a nonce; only the reply echoes cmd.
		if resp.Nonce != nonce && (resp.Nonce != "" || resp.Cmd != cmd) {
			continue
		}
		if resp.Evt == "ERROR" {
			return responseError(resp.Data)
		}
		return nil
	}
}

// readResponse reads until a command frame arrives, answering pings and
// turning a close frame into an error.
func (c *Conn) readResponse() (*response, error) {
	for {
		op, body, err := readFrame(c.nc)
		if err != nil {
			return nil, err
		}

		switch op {
		case opFrame:
			var resp response
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w", err)
			}
			return &resp, nil
		case opPing:
			if err := writeFrame(c.nc, opPong, json.RawMessage(body)); err != nil {
				return nil, err
			}
		case opClose:
			c.closed = true
			_ = c.nc.Close()
			return nil, fmt.Errorf("discord closed the connection: %w", responseError(body))
		default:
			return nil, fmt.Errorf("unexpected opcode %d", op)
		}
	}
}

func (c *Conn) setDeadline() {
	if c.timeout > 0 {
		_ = c.nc.SetDeadline(time.Now().Add(c.timeout))
	}
}

func responseError(data json.RawMessage) error {
	var e errorData
	if err := json.Unmarshal(data, &e); err != nil || e.Message == "" {
		return errors.New("unknown error")
	}
	return fmt.Errorf("%s (code %d)", e.Message, e.Code)
}
