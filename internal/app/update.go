package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"radioss/internal/config"
	"radioss/internal/platform"
	"radioss/internal/stations"
)

const volumeStep = 5

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		m.Notice = ""

		if m.ShowAbout {
			m.ShowAbout = false
			return m, nil
		}
		if m.Form != nil {
			return m, m.updateForm(msg)
		}
		if m.Searching {
			return m, m.updateSearch(msg)
		}

		switch msg.String() {
		case "q":
			return m, m.quit()
		case "enter", " ":
			if st, ok := m.SelectedStation(); ok {
				return m, m.play(st)
			}
		case "s":
			return m, m.stop()
		case "d":
			return m, m.togglePresence()
		case "+", "=":
			return m, m.setVolume(m.Volume + volumeStep)
		case "-":
			return m, m.setVolume(m.Volume - volumeStep)
		case "f", "*":
			return m, m.ToggleFavorite()
		case "a":
			m.Form = newCustomForm()
			return m, nil
		case "x":
			m.RemoveSelectedCustom()
			return m, nil
		case "i":
			m.ShowAbout = true
			return m, nil
		case "/":
			m.ClearSearch()
			m.Searching = true
			m.UpdateListSize()
			return m, nil
		case "n":
			if len(m.SearchMatches) > 0 {
				m.NextMatch()
				return m, nil
			}
		case "N":
			if len(m.SearchMatches) > 0 {
				m.PrevMatch()
				return m, nil
			}
		case "c":
			if m.SearchQuery != "" {
				m.ClearSearch()
				m.UpdateListSize()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.UpdateListSize()
		return m, nil

	case StationsLoadedMsg:
		m.Loading = false
		m.directory = msg.Stations
		if msg.Fallback {
			m.Notice = "Station directory unreachable, showing built-in stations"
		}
		last := ""
		if m.Store != nil {
			last, _ = m.Store.LastStation()
		}
		m.setItems(last)
		if msg.FromCache {
			return m, m.refreshStations()
		}
		return m, nil

	case StationsRefreshedMsg:
		selected := ""
		if st, ok := m.SelectedStation(); ok {
			selected = st.ID
		}
		m.directory = msg.Stations
		m.setItems(selected)
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.refreshStations(), tickRefresh())

	case statusTickMsg:
		// re-render the elapsed time
		return m, tickStatus()

	case ErrorMsg:
		m.Err = msg.Err
		m.Loading = false
		return m, nil

	case ErrorNoticeMsg:
		m.Notice = msg.Err.Error()
		return m, nil

	case PlayStartedMsg:
		if msg.Station.ID != m.PlayingID {
			// stopped while connecting; a newer play stops the stream itself
			if m.PlayingID == "" && m.Player != nil {
				m.Player.Stop()
			}
			return m, nil
		}
		st := msg.Station
		m.Playing = &st
		m.MPRIS.SetPlaying(st.Name, "", st.Favicon)
		cmds := []tea.Cmd{
			m.watchTitlesCmd(st, msg.StreamURL),
			m.publishPresenceCmd(st),
			m.recordClickCmd(st),
		}
		if m.Store != nil {
			store := m.Store
			cmds = append(cmds, m.saveCmd("last station", func() error { return store.SetLastStation(st.ID) }))
		}
		return m, tea.Batch(cmds...)

	case PlayFailedMsg:
		m.Notice = fmt.Sprintf("Could not play %s: %v", msg.Station.Name, msg.Err)
		m.Logger.Warn("playback failed", "station", msg.Station.Name, "error", msg.Err)
		if msg.Station.ID != m.PlayingID {
			return m, nil
		}
		m.PlayingID = ""
		m.Playing = nil
		m.MPRIS.SetStopped()
		return m, m.clearPresenceCmd()

	case TrackTitleMsg:
		if m.Playing == nil || msg.StationID != m.Playing.ID {
			return m, nil
		}
		m.TrackTitle = msg.Title
		m.MPRIS.SetPlaying(m.Playing.Name, msg.Title, m.Playing.Favicon)
		return m, waitForTitle(msg.StationID, msg.next)

	case PresenceMsg:
		if msg.Op == "disconnect" {
			m.PresenceErr = nil
			return m, nil
		}
		m.PresenceErr = msg.Err
		if msg.Err != nil {
			m.Logger.Warn("presence "+msg.Op+" failed", "error", msg.Err)
		}
		return m, nil

	case ConfigReloadedMsg:
		return m, m.applyConfig(msg.Config)

	case platform.PlayMsg:
		if m.PlayingID == "" {
			if st, ok := m.SelectedStation(); ok {
				return m, m.play(st)
			}
		}
		return m, nil
	case platform.StopMsg:
		return m, m.stop()
	case platform.PlayPauseMsg:
		if m.PlayingID != "" {
			return m, m.stop()
		}
		if st, ok := m.SelectedStation(); ok {
			return m, m.play(st)
		}
		return m, nil
	case platform.NextMsg:
		return m, m.step(1)
	case platform.PrevMsg:
		return m, m.step(-1)
	case platform.VolumeMsg:
		return m, m.setVolume(msg.Percent)
	case platform.QuitMsg:
		return m, m.quit()
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.Searching = false
		m.UpdateListSize()
	case tea.KeyEsc:
		m.ClearSearch()
		m.UpdateListSize()
	case tea.KeyBackspace:
		if q := []rune(m.SearchQuery); len(q) > 0 {
			m.SearchQuery = string(q[:len(q)-1])
			m.UpdateSearchMatches()
		}
	case tea.KeyRunes, tea.KeySpace:
		for _, r := range msg.Runes {
			if !IsValidSearchChar(r) {
				return nil
			}
		}
		if msg.Type == tea.KeySpace {
			m.SearchQuery += " "
		} else {
			m.SearchQuery += string(msg.Runes)
		}
		m.UpdateSearchMatches()
	}
	return nil
}

// play marks st as playing and starts it in the background. Presence is
// published once the stream is actually decoding.
func (m *Model) play(st stations.Station) tea.Cmd {
	m.stopTitleWatch()
	m.PlayingID = st.ID
	m.Playing = nil
	m.TrackTitle = ""
	m.Notice = "Connecting to " + st.Name + "…"
	return m.playCmd(st)
}

// stop halts playback and clears the presence activity.
func (m *Model) stop() tea.Cmd {
	if m.PlayingID == "" {
		return nil
	}
	m.stopTitleWatch()
	if m.Player != nil {
		m.Player.Stop()
	}
	m.PlayingID = ""
	m.Playing = nil
	m.TrackTitle = ""
	m.MPRIS.SetStopped()
	return m.clearPresenceCmd()
}

// quit exits the program. The caller runs Shutdown once it has returned.
func (m *Model) quit() tea.Cmd {
	m.stopTitleWatch()
	return tea.Quit
}

// step moves the cursor by delta, wrapping, and plays that station.
func (m *Model) step(delta int) tea.Cmd {
	n := len(m.List.Items())
	if n == 0 {
		return nil
	}
	m.List.Select(((m.List.Index()+delta)%n + n) % n)
	if st, ok := m.SelectedStation(); ok {
		return m.play(st)
	}
	return nil
}

// togglePresence switches Rich Presence on or off and remembers the choice.
func (m *Model) togglePresence() tea.Cmd {
	if m.Presence == nil {
		m.Notice = "Discord presence is not available"
		return nil
	}
	if !m.Config.Presence.Enabled {
		m.Notice = "Discord presence is disabled in the config file"
		return nil
	}
	m.PresenceEnabled = !m.PresenceEnabled
	m.PresenceErr = nil

	var cmds []tea.Cmd
	if m.Store != nil {
		store, enabled := m.Store, m.PresenceEnabled
		cmds = append(cmds, m.saveCmd("presence setting", func() error { return store.SetPresenceEnabled(enabled) }))
	}
	if !m.PresenceEnabled {
		cmds = append(cmds, m.disconnectPresenceCmd())
	} else if m.Playing != nil {
		cmds = append(cmds, m.publishPresenceCmd(*m.Playing))
	}
	return tea.Batch(cmds...)
}

func (m *Model) setVolume(v int) tea.Cmd {
	v = min(max(v, 0), 100)
	if v == m.Volume {
		return nil
	}
	m.Volume = v
	if m.Player != nil {
		m.Player.SetVolume(v)
	}
	m.MPRIS.SetVolume(v)
	if m.Store == nil {
		return nil
	}
	store := m.Store
	return m.saveCmd("volume", func() error { return store.SetVolume(v) })
}

// applyConfig swaps in a reloaded config. Presence settings take effect
// immediately: disabling drops the connection, tag changes republish.
func (m *Model) applyConfig(cfg *config.Config) tea.Cmd {
	if cfg == nil {
		return nil
	}
	old := m.Config
	m.Config = cfg
	m.Logger.Info("configuration reloaded")

	if old.Presence.Enabled && !cfg.Presence.Enabled {
		m.PresenceEnabled = false
		return m.disconnectPresenceCmd()
	}
	if !old.Presence.Enabled && cfg.Presence.Enabled && m.Presence != nil {
		m.PresenceEnabled = true
		if m.Store != nil {
			if enabled, err := m.Store.PresenceEnabled(); err == nil {
				m.PresenceEnabled = enabled
			}
		}
	}
	if m.Playing != nil && (old.Presence.MaxTags != cfg.Presence.MaxTags ||
		old.Presence.TagSeparator != cfg.Presence.TagSeparator ||
		!old.Presence.Enabled && cfg.Presence.Enabled) {
		return m.publishPresenceCmd(*m.Playing)
	}
	return nil
}

func helpKeys() (full, short func() []key.Binding) {
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f/*", "favorite")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discord presence")),
		key.NewBinding(key.WithKeys("+", "-"), key.WithHelp("+/-", "volume")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "next/prev match")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add station")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove custom station")),
		key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "about")),
	}
	full = func() []key.Binding { return bindings }
	short = func() []key.Binding { return bindings[:4] }
	return full, short
}
