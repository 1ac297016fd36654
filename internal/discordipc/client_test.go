package discordipc

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radioss/internal/presence"
)

type receivedCommand struct {
	Cmd   string          `json:"cmd"`
	Nonce string          `json:"nonce"`
	Args  json.RawMessage `json:"args"`
}

// fakeDiscord answers frames on the server end of a pipe the way the Discord
// client does.
type fakeDiscord struct {
	t        *testing.T
	conn     net.Conn
	commands chan receivedCommand
	closed   chan struct{}
	// failNext makes the next command reply with an ERROR event.
	failNext bool
	// pingFirst sends a ping before replying to the next command.
	pingFirst bool
	// eventFirst sends a nonce-less DISPATCH error event before replying
	// to the next command.
	eventFirst bool
}

func newFakeDiscord(t *testing.T) (*fakeDiscord, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	f := &fakeDiscord{
		t:        t,
		conn:     server,
		commands: make(chan receivedCommand, 16),
		closed:   make(chan struct{}),
	}
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return f, client
}

func (f *fakeDiscord) serve() {
	defer close(f.closed)
	for {
		op, body, err := readFrame(f.conn)
		if err != nil {
			return
		}
		switch op {
		case opHandshake:
			var hs handshake
			_ = json.Unmarshal(body, &hs)
			_ = writeFrame(f.conn, opFrame, map[string]any{
				"cmd": "DISPATCH",
				"evt": "READY",
				"data": map[string]any{
					"v":    1,
					"user": map[string]string{"id": "42", "username": "listener"},
				},
			})
		case opFrame:
			var cmd receivedCommand
			_ = json.Unmarshal(body, &cmd)
			f.commands <- cmd
			if f.pingFirst {
				f.pingFirst = false
				_ = writeFrame(f.conn, opPing, map[string]string{"hello": "there"})
				pongOp, _, err := readFrame(f.conn)
				if err != nil || pongOp != opPong {
					return
				}
			}
			if f.eventFirst {
				f.eventFirst = false
				_ = writeFrame(f.conn, opFrame, map[string]any{
					"cmd":  "DISPATCH",
					"evt":  "ERROR",
					"data": map[string]any{"code": 1000, "message": "unrelated event"},
				})
			}
			reply := map[string]any{"cmd": cmd.Cmd, "nonce": cmd.Nonce}
			if f.failNext {
				f.failNext = false
				reply["evt"] = "ERROR"
				reply["data"] = map[string]any{"code": 4000, "message": "child \"activity\" fails"}
			}
			_ = writeFrame(f.conn, opFrame, reply)
		case opClose:
			return
		}
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, opFrame, map[string]string{"cmd": "X"}))

	op, body, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, opFrame, op)
	assert.JSONEq(t, `{"cmd":"X"}`, string(body))
}

func TestReadFrame_TooLarge(t *testing.T) {
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], opFrame)
	binary.LittleEndian.PutUint32(header[4:8], maxFrameSize+1)

	_, _, err := readFrame(bytes.NewReader(header))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestReadFrame_Truncated(t *testing.T) {
	_, _, err := readFrame(bytes.NewReader([]byte{1, 0, 0}))
	require.Error(t, err)
}

func TestConn_HandshakeAndSetActivity(t *testing.T) {
	fake, client := newFakeDiscord(t)
	go fake.serve()

	c := NewConn(client, presence.ApplicationID, time.Second)
	require.NoError(t, c.Handshake())
	assert.Equal(t, "listener", c.User().Username)

	tags := "jazz • blues"
	require.NoError(t, c.SetActivity(presence.NewActivity("Jazz FM", &tags, 1_700_000_000)))

	cmd := <-fake.commands
	assert.Equal(t, "SET_ACTIVITY", cmd.Cmd)
	assert.NotEmpty(t, cmd.Nonce)

	var args struct {
		PID      int               `json:"pid"`
		Activity presence.Activity `json:"activity"`
	}
	require.NoError(t, json.Unmarshal(cmd.Args, &args))
	assert.Positive(t, args.PID)
	assert.Equal(t, "📻 Jazz FM", args.Activity.Details)
	assert.Equal(t, "🎵 jazz • blues", args.Activity.State)
	assert.Equal(t, presence.ActivityListening, args.Activity.Type)
	assert.Equal(t, int64(1_700_000_000), args.Activity.Timestamps.Start)

	require.NoError(t, c.Close())
	<-fake.closed
}

func TestConn_ClearActivityOmitsActivity(t *testing.T) {
	fake, client := newFakeDiscord(t)
	go fake.serve()

	c := NewConn(client, presence.ApplicationID, time.Second)
	require.NoError(t, c.Handshake())
	require.NoError(t, c.ClearActivity())

	cmd := <-fake.commands
	var args map[string]any
	require.NoError(t, json.Unmarshal(cmd.Args, &args))
	assert.Contains(t, args, "pid")
	assert.NotContains(t, args, "activity")
}

func TestConn_ErrorEvent(t *testing.T) {
	fake, client := newFakeDiscord(t)
	fake.failNext = true
	go fake.serve()

	c := NewConn(client, presence.ApplicationID, time.Second)
	require.NoError(t, c.Handshake())

	err := c.SetActivity(presence.NewActivity("X", nil, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 4000")

	// The connection is still usable afterwards.
	require.NoError(t, c.SetActivity(presence.NewActivity("X", nil, 1)))
}

func TestConn_AnswersPing(t *testing.T) {
	fake, client := newFakeDiscord(t)
	fake.pingFirst = true
	go fake.serve()

	c := NewConn(client, presence.ApplicationID, time.Second)
	require.NoError(t, c.Handshake())
	require.NoError(t, c.ClearActivity())
}

func TestConn_SkipsEventsWithoutNonce(t *testing.T) {
	fake, client := newFakeDiscord(t)
	fake.eventFirst = true
	go fake.serve()

	c := NewConn(client, presence.ApplicationID, time.Second)
	require.NoError(t, c.Handshake())
	require.NoError(t, c.SetActivity(presence.NewActivity("X", nil, 1)))

	// The real reply was consumed, so the next call reads its own.
	fake.failNext = true
	err := c.ClearActivity()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 4000")
}

func TestConn_HandshakeRejected(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = server.Close() }()

	go func() {
		_, _, _ = readFrame(server)
		_ = writeFrame(server, opClose, errorData{Code: 4000, Message: "Invalid Client ID"})
	}()

	c := NewConn(client, "bogus", time.Second)
	err := c.Handshake()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Client ID")

	assert.ErrorIs(t, c.SetActivity(nil), ErrNotConnected)
}

func TestConn_TimeoutWhenNoReply(t *testing.T) {
	server, client := net.Pipe()
	defer func() { _ = server.Close() }()
	go func() { _, _, _ = readFrame(server) }()

	c := NewConn(client, presence.ApplicationID, 50*time.Millisecond)
	err := c.Handshake()
	require.Error(t, err)
}

func TestConn_CloseTwice(t *testing.T) {
	fake, client := newFakeDiscord(t)
	go fake.serve()

	c := NewConn(client, presence.ApplicationID, time.Second)
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.ClearActivity(), ErrNotConnected)
}

func TestDialer_WithSession(t *testing.T) {
	fake, client := newFakeDiscord(t)
	go fake.serve()

	d := NewDialer(time.Second, nil)
	d.dial = func(ctx context.Context) (net.Conn, error) { return client, nil }

	s := presence.NewSession(d, nil)
	require.NoError(t, s.Connect())

	tags := "lofi"
	require.NoError(t, s.Update("Chillhop", &tags))
	cmd := <-fake.commands
	assert.Equal(t, "SET_ACTIVITY", cmd.Cmd)

	require.NoError(t, s.Disconnect())
	<-fake.closed
	assert.False(t, s.Connected())
}

func TestDialer_NoSocket(t *testing.T) {
	d := NewDialer(time.Second, nil)
	d.dial = func(ctx context.Context) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	s := presence.NewSession(d, nil)
	err := s.Connect()
	var connErr *presence.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsDiscordProcess(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Discord", true},
		{"Discord.exe", true},
		{"DiscordCanary", true},
		{"discord-ptb", true},
		{"Discord Helper (Renderer)", false},
		{"firefox", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiscordProcess(tt.name))
		})
	}
}
