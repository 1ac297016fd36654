// Package presence keeps the Discord Rich Presence connection for the player
// and publishes what is currently playing.
package presence

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Conn is a live IPC connection to the Discord client.
type Conn interface {
	Handshake() error
	SetActivity(activity *Activity) error
	ClearActivity() error
	Close() error
}

// Dialer creates connections bound to a Discord application id.
type Dialer interface {
	Dial(appID string) (Conn, error)
}

// Clock supplies wall-clock time and monotonic elapsed time.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type systemClock struct{}

func (systemClock) Now() time.Time                  { return time.Now() }
func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// ConnectionError reports a failure to create the client or to complete the
// handshake. The session stays disconnected.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PublishError reports a failed send on an open connection. The connection is
// kept, so the caller may retry or reconnect.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// link is the connection together with the instant the listening session
// began. Keeping both in one value means they are always set and cleared
// together.
type link struct {
	conn  Conn
	start time.Time
}

// Session owns at most one connection to Discord. All methods are safe for
// concurrent use; each holds the session lock for its whole duration,
// including the IPC round-trip.
type Session struct {
	mu     sync.Mutex
	dialer Dialer
	clock  Clock
	logger *slog.Logger
	link   *link
}

// NewSession creates a disconnected session that dials through dialer.
func NewSession(dialer Dialer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		dialer: dialer,
		clock:  systemClock{},
		logger: logger,
	}
}

// Connect opens the connection if there is none. Calling it while connected
// returns nil without dialing again.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link != nil {
		return nil
	}

	conn, err := s.dialer.Dial(ApplicationID)
	if err != nil {
		return &ConnectionError{Op: "create Discord client", Err: err}
	}
	if err := conn.Handshake(); err != nil {
		_ = conn.Close()
		return &ConnectionError{Op: "connect to Discord", Err: err}
	}

	s.link = &link{conn: conn, start: s.clock.Now()}
	s.logger.Debug("discord presence connected")
	return nil
}

// Update publishes the station being listened to. It does nothing while
// disconnected. The start timestamp is derived from the session start, so
// the elapsed timer in Discord keeps running across updates.
func (s *Session) Update(displayName string, tags *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link == nil {
		return nil
	}

	elapsed := s.clock.Since(s.link.start)
	start := s.clock.Now().Unix() - int64(elapsed/time.Second)

	activity := NewActivity(displayName, tags, start)
	if err := s.link.conn.SetActivity(activity); err != nil {
		return &PublishError{Op: "set activity", Err: err}
	}
	s.logger.Debug("discord activity updated", "station", displayName)
	return nil
}

// Clear removes the displayed activity but keeps the connection open.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link == nil {
		return nil
	}
	if err := s.link.conn.ClearActivity(); err != nil {
		return &PublishError{Op: "clear activity", Err: err}
	}
	s.logger.Debug("discord activity cleared")
	return nil
}

// Disconnect closes the connection. Close errors are logged and dropped: the
// session always ends up disconnected and Disconnect always returns nil.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link == nil {
		return nil
	}
	if err := s.link.conn.Close(); err != nil {
		s.logger.Debug("ignoring discord close error", "error", err)
	}
	s.link = nil
	s.logger.Debug("discord presence disconnected")
	return nil
}

// Connected reports whether a connection is held.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link != nil
}

// Started returns the instant the current connection was made.
func (s *Session) Started() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.link == nil {
		return time.Time{}, false
	}
	return s.link.start, true
}
