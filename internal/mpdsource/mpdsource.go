// Package mpdsource publishes what an MPD server is playing as Rich
// Presence, for running radioss headless next to an existing player.
package mpdsource

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"radioss/internal/config"
	"radioss/internal/stations"
)

// Client is the part of an MPD connection the bridge polls.
type Client interface {
	Status() (mpd.Attrs, error)
	CurrentSong() (mpd.Attrs, error)
	Close() error
}

// Publisher receives the derived activity.
type Publisher interface {
	Connect() error
	Update(displayName string, tags *string) error
	Clear() error
	Disconnect() error
}

// Dial connects to MPD using cfg.
func Dial(cfg config.MPDConfig) (Client, error) {
	var (
		c   *mpd.Client
		err error
	)
	if cfg.Password != "" {
		c, err = mpd.DialAuthenticated(cfg.Network, cfg.Address, cfg.Password)
	} else {
		c, err = mpd.Dial(cfg.Network, cfg.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mpd at %s: %w", cfg.Address, err)
	}
	return c, nil
}

// snapshot is the presence-relevant part of the MPD state.
type snapshot struct {
	playing bool
	name    string
	tags    string
	hasTags bool
}

// Bridge polls MPD and mirrors it to a Publisher.
type Bridge struct {
	Dial      func() (Client, error)
	Publisher Publisher
	Interval  time.Duration
	MaxTags   int
	TagSep    string
	Logger    *slog.Logger

	client    Client
	last      snapshot
	published bool
}

// NewBridge creates a bridge for the MPD and presence settings in cfg.
func NewBridge(cfg *config.Config, pub Publisher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	mpdCfg := cfg.MPD
	return &Bridge{
		Dial:      func() (Client, error) { return Dial(mpdCfg) },
		Publisher: pub,
		Interval:  cfg.MPDPollInterval(),
		MaxTags:   cfg.Presence.MaxTags,
		TagSep:    cfg.Presence.TagSeparator,
		Logger:    logger,
	}
}

// Run polls until ctx is cancelled, then disconnects the publisher.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.shutdown()

	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		b.Poll()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll reads the MPD state once and publishes it if it changed. Failures
// are logged and retried on the next poll.
func (b *Bridge) Poll() {
	if b.client == nil {
		c, err := b.Dial()
		if err != nil {
			b.Logger.Debug("mpd unavailable", "error", err)
			return
		}
		b.client = c
		b.Logger.Info("connected to mpd")
	}

	snap, err := b.read()
	if err != nil {
		b.Logger.Warn("lost mpd connection", "error", err)
		_ = b.client.Close()
		b.client = nil
		return
	}

	if b.published && snap == b.last {
		return
	}
	if err := b.publish(snap); err != nil {
		b.Logger.Warn("failed to publish presence", "error", err)
		return
	}
	b.last = snap
	b.published = true
}

func (b *Bridge) read() (snapshot, error) {
	status, err := b.client.Status()
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to read mpd status: %w", err)
	}
	if status["state"] != "play" {
		return snapshot{}, nil
	}

	song, err := b.client.CurrentSong()
	if err != nil {
		return snapshot{}, fmt.Errorf("failed to read current song: %w", err)
	}
	snap := snapshot{playing: true, name: songName(song)}
	if tags := stations.PresenceTags(stations.SplitTags(song["Genre"]), b.MaxTags, b.TagSep); tags != nil {
		snap.tags, snap.hasTags = *tags, true
	}
	return snap, nil
}

func (b *Bridge) publish(snap snapshot) error {
	if !snap.playing {
		return b.Publisher.Clear()
	}
	if err := b.Publisher.Connect(); err != nil {
		return err
	}
	var tags *string
	if snap.hasTags {
		tags = &snap.tags
	}
	return b.Publisher.Update(snap.name, tags)
}

func (b *Bridge) shutdown() {
	_ = b.Publisher.Disconnect()
	if b.client != nil {
		_ = b.client.Close()
		b.client = nil
	}
}

// songName prefers the stream name MPD reports for radio, then the title,
// then the file name.
func songName(song mpd.Attrs) string {
	for _, key := range []string{"Name", "Title"} {
		if v := song[key]; v != "" {
			return v
		}
	}
	if f := song["file"]; f != "" {
		return path.Base(f)
	}
	return "Unknown"
}
