package mpdsource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radioss/internal/config"
)

type fakeClient struct {
	status mpd.Attrs
	song   mpd.Attrs
	err    error
	closed bool
}

func (c *fakeClient) Status() (mpd.Attrs, error)      { return c.status, c.err }
func (c *fakeClient) CurrentSong() (mpd.Attrs, error) { return c.song, c.err }
func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

type recorder struct {
	mu         sync.Mutex
	calls      []string
	connectErr error
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Connect() error {
	r.add("connect")
	return r.connectErr
}

func (r *recorder) Update(name string, tags *string) error {
	if tags == nil {
		r.add("update " + name)
	} else {
		r.add("update " + name + " | " + *tags)
	}
	return nil
}

func (r *recorder) Clear() error {
	r.add("clear")
	return nil
}

func (r *recorder) Disconnect() error {
	r.add("disconnect")
	return nil
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newBridge(client *fakeClient, rec *recorder) *Bridge {
	cfg := config.DefaultConfig()
	b := NewBridge(cfg, rec, nil)
	b.Dial = func() (Client, error) { return client, nil }
	return b
}

func TestPollPublishesOnChangeOnly(t *testing.T) {
	client := &fakeClient{
		status: mpd.Attrs{"state": "play"},
		song:   mpd.Attrs{"Name": "1LIVE", "Title": "Artist - Song", "Genre": "pop, rock, charts, hits"},
	}
	rec := &recorder{}
	b := newBridge(client, rec)

	b.Poll()
	b.Poll()
	assert.Equal(t, []string{"connect", "update 1LIVE | pop • rock • charts"}, rec.Calls())

	client.status = mpd.Attrs{"state": "pause"}
	b.Poll()
	b.Poll()
	assert.Equal(t, "clear", rec.Calls()[2])
	assert.Len(t, rec.Calls(), 3)

	client.status = mpd.Attrs{"state": "play"}
	client.song = mpd.Attrs{"file": "music/album/track.flac"}
	b.Poll()
	assert.Equal(t, []string{"connect", "update track.flac"}, rec.Calls()[3:])
}

func TestPollRetriesFailedPublish(t *testing.T) {
	client := &fakeClient{status: mpd.Attrs{"state": "play"}, song: mpd.Attrs{"Title": "Song"}}
	rec := &recorder{connectErr: errors.New("no discord")}
	b := newBridge(client, rec)

	b.Poll()
	rec.connectErr = nil
	b.Poll()

	assert.Equal(t, []string{"connect", "connect", "update Song"}, rec.Calls())
}

func TestPollReconnectsAfterError(t *testing.T) {
	client := &fakeClient{err: errors.New("broken pipe")}
	rec := &recorder{}
	b := newBridge(client, rec)
	dials := 0
	b.Dial = func() (Client, error) {
		dials++
		return client, nil
	}

	b.Poll()
	assert.True(t, client.closed)
	assert.Empty(t, rec.Calls())

	client.err = nil
	client.status = mpd.Attrs{"state": "stop"}
	b.Poll()
	assert.Equal(t, 2, dials)
	assert.Equal(t, []string{"clear"}, rec.Calls())
}

func TestPollDialFailure(t *testing.T) {
	rec := &recorder{}
	b := newBridge(nil, rec)
	b.Dial = func() (Client, error) { return nil, errors.New("connection refused") }

	b.Poll()
	assert.Empty(t, rec.Calls())
}

func TestRunDisconnectsOnCancel(t *testing.T) {
	client := &fakeClient{status: mpd.Attrs{"state": "play"}, song: mpd.Attrs{"Name": "SWR3"}}
	rec := &recorder{}
	b := newBridge(client, rec)
	b.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.Calls()) >= 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	calls := rec.Calls()
	assert.Equal(t, []string{"connect", "update SWR3", "disconnect"}, calls)
	assert.True(t, client.closed)
}

func TestSongName(t *testing.T) {
	assert.Equal(t, "Stream", songName(mpd.Attrs{"Name": "Stream", "Title": "T"}))
	assert.Equal(t, "T", songName(mpd.Attrs{"Title": "T"}))
	assert.Equal(t, "live", songName(mpd.Attrs{"file": "http://example.com/live"}))
	assert.Equal(t, "Unknown", songName(mpd.Attrs{}))
}
