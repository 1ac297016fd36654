package audio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamStateString(t *testing.T) {
	tests := []struct {
		state StreamState
		want  string
	}{
		{StreamBuffering, "Buffering"},
		{StreamHealthy, "Healthy"},
		{StreamUnderrun, "Underrun"},
		{StreamFailed, "Failed"},
		{StreamClosed, "Closed"},
		{StreamState(99), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestDefaultBackoff(t *testing.T) {
	b := DefaultBackoff()
	assert.Equal(t, time.Second, b.Initial)
	assert.Equal(t, 30*time.Second, b.Max)
	assert.Equal(t, 0, b.MaxRetries)
}

func TestStream_ReadsBody(t *testing.T) {
	payload := bytes.Repeat([]byte("radio"), 20000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Radioss/test", r.Header.Get("User-Agent"))
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	s := NewStream(server.URL, "Radioss/test", nil)
	s.backoff.MaxRetries = 1
	s.backoff.Initial = time.Millisecond
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Close() }()

	got := make([]byte, len(payload))
	_, err := io.ReadFull(s, got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NotEqual(t, StreamFailed, s.Stats().State)
}

func TestStream_Reconnects(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		_, _ = w.Write(bytes.Repeat([]byte{byte(n)}, prebufferChunks*chunkSize))
	}))
	defer server.Close()

	s := NewStream(server.URL, "Radioss/test", nil)
	s.backoff.Initial = time.Millisecond
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Close() }()

	buf := make([]byte, 2*prebufferChunks*chunkSize)
	_, err := io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, byte(1), buf[0])
	assert.Equal(t, byte(2), buf[len(buf)-1])
	assert.GreaterOrEqual(t, hits.Load(), int32(2))
}

func TestStream_StartFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewStream(server.URL, "Radioss/test", nil)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NoError(t, s.Close())
}

func TestStream_FailsAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) > 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("short"))
	}))
	defer server.Close()

	s := NewStream(server.URL, "Radioss/test", nil)
	s.backoff = Backoff{Initial: time.Millisecond, Max: time.Millisecond, Factor: 1, MaxRetries: 2}
	require.NoError(t, s.Start(context.Background()))

	data, err := io.ReadAll(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
	assert.Equal(t, "short", string(data))
	assert.Equal(t, StreamFailed, s.Stats().State)
}

func TestStream_CloseUnblocksFill(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := bytes.Repeat([]byte{0}, chunkSize)
		for r.Context().Err() == nil {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	s := NewStream(server.URL, "Radioss/test", nil)
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return s.Stats().Fill == 1 }, 5*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, StreamClosed, s.Stats().State)
}
