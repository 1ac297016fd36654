// Package app is the terminal radio player: station list, playback and the
// desktop integrations that follow it.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"radioss/internal/audio"
	"radioss/internal/config"
	"radioss/internal/platform"
	"radioss/internal/stations"
	"radioss/internal/storage"
	"radioss/internal/ui"
)

// AboutInfo holds version and metadata for the about screen.
type AboutInfo struct {
	Version string
	Commit  string
	Date    string
}

// Presence is the Rich Presence session the player publishes to.
type Presence interface {
	Connect() error
	Update(displayName string, tags *string) error
	Clear() error
	Disconnect() error
	Started() (time.Time, bool)
}

// Options wires the model to its collaborators. Player, Presence and MPRIS
// may be nil.
type Options struct {
	Player   audio.Player
	Presence Presence
	Store    *storage.Store
	Client   *stations.Client
	Config   *config.Config
	MPRIS    *platform.MPRIS
	About    AboutInfo
	Logger   *slog.Logger

	// WatchTitles streams ICY titles for a playing URL. Defaults to an
	// audio.TitleWatcher.
	WatchTitles func(ctx context.Context, url string) <-chan string
}

// Model is the application state.
type Model struct {
	List     list.Model
	Player   audio.Player
	Presence Presence
	Store    *storage.Store
	Client   *stations.Client
	Config   *config.Config
	MPRIS    *platform.MPRIS
	About    AboutInfo
	Logger   *slog.Logger

	watchTitles func(ctx context.Context, url string) <-chan string
	stopTitles  context.CancelFunc

	directory []stations.Station

	Loading   bool
	Err       error
	Notice    string // transient, cleared on the next key press
	ShowAbout bool
	Width     int
	Height    int

	// Playback
	PlayingID  string
	Playing    *stations.Station
	TrackTitle string
	Volume     int

	// Presence
	PresenceEnabled bool
	PresenceErr     error
	presenceOps     presenceQueue

	// Search
	Searching     bool
	SearchQuery   string
	SearchMatches []int
	CurrentMatch  int

	// Custom station form, nil when closed
	Form *customForm
}

// New builds the model and its station list.
func New(opts Options) *Model {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Model{
		Player:       opts.Player,
		Presence:     opts.Presence,
		Store:        opts.Store,
		Client:       opts.Client,
		Config:       opts.Config,
		MPRIS:        opts.MPRIS,
		About:        opts.About,
		Logger:       opts.Logger,
		watchTitles:  opts.WatchTitles,
		Loading:      true,
		Volume:       opts.Config.Player.Volume,
		CurrentMatch: -1,
	}
	if m.watchTitles == nil {
		ua := opts.Config.Radio.UserAgent
		logger := opts.Logger
		m.watchTitles = func(ctx context.Context, url string) <-chan string {
			return audio.NewTitleWatcher(url, ua, logger).Watch(ctx)
		}
	}

	m.PresenceEnabled = opts.Config.Presence.Enabled && opts.Presence != nil
	if m.Store != nil {
		if enabled, err := m.Store.PresenceEnabled(); err == nil {
			m.PresenceEnabled = m.PresenceEnabled && enabled
		}
		if v, err := m.Store.Volume(); err == nil {
			m.Volume = v
		}
	}
	if m.Player != nil {
		m.Player.SetVolume(m.Volume)
	}
	m.MPRIS.SetVolume(m.Volume)

	delegate := ui.NewStyledDelegate(&m.PlayingID, m.IsMatch)
	m.List = list.New(nil, delegate, 0, 0)
	m.List.SetShowTitle(false)
	m.List.SetShowStatusBar(false)
	m.List.SetFilteringEnabled(false)
	m.List.AdditionalFullHelpKeys, m.List.AdditionalShortHelpKeys = helpKeys()
	return m
}

// Init loads the stations.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadStations(), tickRefresh(), tickStatus())
}

// SelectedStation returns the station under the cursor.
func (m *Model) SelectedStation() (stations.Station, bool) {
	i, ok := m.List.SelectedItem().(ui.Item)
	if !ok {
		return stations.Station{}, false
	}
	return i.Station, true
}

// presenceTags renders the station tags the way the config asks for.
func (m *Model) presenceTags(st stations.Station) *string {
	return stations.PresenceTags(st.Tags, m.Config.Presence.MaxTags, m.Config.Presence.TagSeparator)
}

// Shutdown stops playback and drops the presence connection once every
// queued presence operation has run. Call it after the program exits.
func (m *Model) Shutdown() {
	m.stopTitleWatch()
	if m.Player != nil {
		m.Player.Stop()
	}
	if m.Presence != nil {
		session := m.Presence
		<-m.presenceOps.enqueue(func() PresenceMsg {
			return PresenceMsg{Op: "disconnect", Err: session.Disconnect()}
		})
	}
	m.MPRIS.SetStopped()
}
