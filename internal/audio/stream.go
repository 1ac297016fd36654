package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// StreamState describes how well the stream buffer is keeping up.
type StreamState int

const (
	StreamBuffering StreamState = iota
	StreamHealthy
	StreamUnderrun
	StreamFailed
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamBuffering:
		return "Buffering"
	case StreamHealthy:
		return "Healthy"
	case StreamUnderrun:
		return "Underrun"
	case StreamFailed:
		return "Failed"
	case StreamClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// StreamStats is a snapshot of the stream buffer.
type StreamStats struct {
	Fill  float64 // 0.0 to 1.0
	State StreamState
	Err   error
}

// Backoff controls reconnect delays after the connection drops.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Factor     float64
	MaxRetries int // 0 retries forever
}

// DefaultBackoff suits live radio: retry forever, at most every 30s.
func DefaultBackoff() Backoff {
	return Backoff{Initial: time.Second, Max: 30 * time.Second, Factor: 2}
}

const (
	chunkSize       = 8 * 1024
	bufferChunks    = 32 // ~15s at 128 kbps
	prebufferChunks = 4
)

// Stream reads a live HTTP audio stream into a bounded buffer and
// reconnects when the connection drops. Read blocks until data is
// available.
type Stream struct {
	url       string
	userAgent string
	client    *http.Client
	backoff   Backoff
	logger    *slog.Logger

	chunks chan []byte
	ready  chan struct{}
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	pending []byte
	state   StreamState
	err     error
}

// NewStream creates a stream for url. Call Start to connect.
func NewStream(url, userAgent string, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{},
		backoff:   DefaultBackoff(),
		logger:    logger,
		chunks:    make(chan []byte, bufferChunks),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start opens the first connection and begins filling the buffer. A failure
// to connect at all is returned directly.
func (s *Stream) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	body, err := s.open(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("initial connection failed: %w", err)
	}

	s.cancel = cancel
	go s.fill(ctx, body)
	return nil
}

func (s *Stream) open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *Stream) fill(ctx context.Context, body io.ReadCloser) {
	defer close(s.done)
	defer close(s.chunks)

	delay := s.backoff.Initial
	retries := 0
	filled := 0

	for {
		buf := make([]byte, chunkSize)
		n, err := body.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-ctx.Done():
				_ = body.Close()
				return
			}
			delay, retries = s.backoff.Initial, 0
			filled++
			if filled == prebufferChunks {
				close(s.ready)
			}
			if filled >= prebufferChunks {
				s.setState(StreamHealthy, nil)
			}
		}
		if err == nil {
			continue
		}

		_ = body.Close()
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, io.EOF) {
			s.logger.Debug("stream ended, reconnecting", "url", s.url)
		} else {
			s.logger.Debug("stream read failed, reconnecting", "url", s.url, "error", err)
		}
		s.setState(StreamUnderrun, nil)

		for {
			if s.backoff.MaxRetries > 0 && retries >= s.backoff.MaxRetries {
				s.setState(StreamFailed, fmt.Errorf("max retries exceeded: %w", err))
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			body, err = s.open(ctx)
			if err == nil {
				break
			}
			retries++
			delay = min(time.Duration(float64(delay)*s.backoff.Factor), s.backoff.Max)
		}
	}
}

func (s *Stream) setState(state StreamState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if err != nil {
		s.err = err
	}
}

// Read implements io.Reader. It waits for the initial prebuffer before
// returning anything.
func (s *Stream) Read(p []byte) (int, error) {
	select {
	case <-s.ready:
	case <-s.done:
	}

	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()

	if len(pending) == 0 {
		chunk, ok := <-s.chunks
		if !ok {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.err != nil {
				return 0, s.err
			}
			return 0, io.EOF
		}
		pending = chunk
	}

	n := copy(p, pending)
	s.mu.Lock()
	s.pending = pending[n:]
	s.mu.Unlock()
	return n, nil
}

// Stats returns the current buffer state.
func (s *Stream) Stats() StreamStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StreamStats{
		Fill:  float64(len(s.chunks)) / float64(cap(s.chunks)),
		State: s.state,
		Err:   s.err,
	}
}

// Close stops the fill goroutine and waits for it to exit.
func (s *Stream) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	<-s.done
	s.setState(StreamClosed, nil)
	return nil
}
