package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"radioss/internal/config"
	"radioss/internal/stations"
	"radioss/pkg/playlist"
)

const (
	refreshInterval = 10 * time.Minute
	statusInterval  = 30 * time.Second
	loadTimeout     = 30 * time.Second
)

// StationsLoadedMsg carries the directory stations.
type StationsLoadedMsg struct {
	Stations  []stations.Station
	FromCache bool
	Fallback  bool // built-in defaults, the directory was unreachable
}

// StationsRefreshedMsg carries a background refresh of the directory.
type StationsRefreshedMsg struct {
	Stations []stations.Station
}

// ErrorMsg reports a fatal loading error.
type ErrorMsg struct {
	Err error
}

// PlayStartedMsg is sent once a stream is decoding.
type PlayStartedMsg struct {
	Station   stations.Station
	StreamURL string
}

// PlayFailedMsg is sent when a stream could not be opened.
type PlayFailedMsg struct {
	Station stations.Station
	Err     error
}

// TrackTitleMsg carries a new ICY title for the playing station.
type TrackTitleMsg struct {
	StationID string
	Title     string
	next      <-chan string
}

// PresenceMsg reports the outcome of a presence operation.
type PresenceMsg struct {
	Op  string
	Err error
}

// ConfigReloadedMsg is sent by the config watcher after the file changed.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type refreshTickMsg struct{}

type statusTickMsg struct{}

func tickRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func tickStatus() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg { return statusTickMsg{} })
}

// loadStations shows cached stations if there are any, otherwise it asks the
// directory. When both fail the built-in list is used.
func (m *Model) loadStations() tea.Cmd {
	client := m.Client
	country := m.Config.Radio.DefaultCountry
	limit := m.Config.Radio.Limit
	logger := m.Logger

	return func() tea.Msg {
		if client == nil {
			return StationsLoadedMsg{Stations: stations.Defaults(), Fallback: true}
		}

		cached, err := cachedStations(client, country, limit)
		if err == nil && len(cached) > 0 {
			return StationsLoadedMsg{Stations: cached, FromCache: true}
		}

		list, err := fetchStations(client, country, limit)
		if err != nil {
			logger.Warn("failed to load stations, using defaults", "error", err)
			return StationsLoadedMsg{Stations: stations.Defaults(), Fallback: true}
		}
		return StationsLoadedMsg{Stations: list}
	}
}

func (m *Model) refreshStations() tea.Cmd {
	client := m.Client
	if client == nil {
		return nil
	}
	country := m.Config.Radio.DefaultCountry
	limit := m.Config.Radio.Limit
	logger := m.Logger

	return func() tea.Msg {
		list, err := fetchStations(client, country, limit)
		if err != nil {
			logger.Debug("station refresh failed", "error", err)
			return nil
		}
		return StationsRefreshedMsg{Stations: list}
	}
}

func cachedStations(c *stations.Client, country string, limit int) ([]stations.Station, error) {
	if country != "" {
		return c.CachedByCountry(country, limit)
	}
	return c.CachedTopVoted(limit)
}

func fetchStations(c *stations.Client, country string, limit int) ([]stations.Station, error) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if country != "" {
		return c.ByCountry(ctx, country, limit)
	}
	return c.TopVoted(ctx, limit)
}

// playCmd resolves playlists and starts the stream off the UI goroutine.
func (m *Model) playCmd(st stations.Station) tea.Cmd {
	player := m.Player
	ua := m.Config.Radio.UserAgent

	return func() tea.Msg {
		if player == nil {
			return PlayFailedMsg{Station: st, Err: errors.New("no audio device")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		streamURL, err := playlist.Resolve(ctx, st.URL, ua)
		if err != nil {
			return PlayFailedMsg{Station: st, Err: err}
		}
		if err := player.Play(streamURL); err != nil {
			return PlayFailedMsg{Station: st, Err: err}
		}
		return PlayStartedMsg{Station: st, StreamURL: streamURL}
	}
}

func (m *Model) recordClickCmd(st stations.Station) tea.Cmd {
	client := m.Client
	if client == nil || st.IsCustom {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client.RecordClick(ctx, st.ID)
		return nil
	}
}

// watchTitlesCmd starts an ICY watcher for the stream and returns the
// command delivering its first title.
func (m *Model) watchTitlesCmd(st stations.Station, streamURL string) tea.Cmd {
	m.stopTitleWatch()
	ctx, cancel := context.WithCancel(context.Background())
	m.stopTitles = cancel
	return waitForTitle(st.ID, m.watchTitles(ctx, streamURL))
}

func waitForTitle(stationID string, titles <-chan string) tea.Cmd {
	if titles == nil {
		return nil
	}
	return func() tea.Msg {
		title, ok := <-titles
		if !ok {
			return nil
		}
		return TrackTitleMsg{StationID: stationID, Title: title, next: titles}
	}
}

func (m *Model) stopTitleWatch() {
	if m.stopTitles != nil {
		m.stopTitles()
		m.stopTitles = nil
	}
}

// publishPresenceCmd connects if needed and publishes the station. Presence
// commands are queued when built and run in that order.
func (m *Model) publishPresenceCmd(st stations.Station) tea.Cmd {
	if !m.PresenceEnabled || m.Presence == nil {
		return nil
	}
	session := m.Presence
	name := st.Name
	tags := m.presenceTags(st)

	return m.presenceOps.cmd(func() PresenceMsg {
		if err := session.Connect(); err != nil {
			return PresenceMsg{Op: "connect", Err: err}
		}
		return PresenceMsg{Op: "update", Err: session.Update(name, tags)}
	})
}

func (m *Model) clearPresenceCmd() tea.Cmd {
	if !m.PresenceEnabled || m.Presence == nil {
		return nil
	}
	session := m.Presence
	return m.presenceOps.cmd(func() PresenceMsg {
		return PresenceMsg{Op: "clear", Err: session.Clear()}
	})
}

func (m *Model) disconnectPresenceCmd() tea.Cmd {
	if m.Presence == nil {
		return nil
	}
	session := m.Presence
	return m.presenceOps.cmd(func() PresenceMsg {
		return PresenceMsg{Op: "disconnect", Err: session.Disconnect()}
	})
}

func (m *Model) saveCmd(what string, fn func() error) tea.Cmd {
	logger := m.Logger
	return func() tea.Msg {
		if err := fn(); err != nil {
			logger.Warn("failed to save "+what, "error", err)
			return ErrorNoticeMsg{Err: fmt.Errorf("failed to save %s: %w", what, err)}
		}
		return nil
	}
}

// ErrorNoticeMsg is a non-fatal error shown above the status bar.
type ErrorNoticeMsg struct {
	Err error
}
