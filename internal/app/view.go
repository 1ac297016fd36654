package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"radioss/internal/ui"
)

// RenderHeader renders the list header with column titles.
func (m *Model) RenderHeader() string {
	leftWidth, metaWidth := ui.CalculateColumnWidths(m.List.Width())

	title := "Radioss"
	if c := m.Config.Radio.DefaultCountry; c != "" {
		title += " · " + c
	} else {
		title += " · Top voted"
	}
	meta := ui.HeaderStyle.Width(metaWidth).Align(lipgloss.Right).Render("Votes")
	return lipgloss.JoinHorizontal(lipgloss.Bottom, ui.TitleStyle.Width(leftWidth).Render(title), meta)
}

// RenderSearchBar renders the search input, or the active query.
func (m *Model) RenderSearchBar() string {
	if m.Searching {
		info := ""
		if len(m.SearchMatches) > 0 {
			info = fmt.Sprintf(" [%d/%d]", m.CurrentMatch+1, len(m.SearchMatches))
		} else if m.SearchQuery != "" {
			info = " [no matches]"
		}
		return ui.InputBarStyle.Render("/" + m.SearchQuery + info)
	}
	if m.SearchQuery != "" {
		info := ""
		if len(m.SearchMatches) > 0 {
			info = fmt.Sprintf(" [%d/%d] (n/N navigate, c clear)", m.CurrentMatch+1, len(m.SearchMatches))
		}
		return ui.InputBarStyle.Render("Search: " + m.SearchQuery + info)
	}
	return ""
}

// RenderPresence describes the Rich Presence state for the status bar.
func (m *Model) RenderPresence() string {
	switch {
	case m.Presence == nil || !m.PresenceEnabled:
		return ui.PresenceOffStyle.Render("Discord off")
	case m.PresenceErr != nil:
		return ui.PresenceOffStyle.Render("Discord ✕")
	}
	if started, ok := m.Presence.Started(); ok && m.Playing != nil {
		return ui.PresenceOnStyle.Render("Discord ● since " + humanize.Time(started))
	}
	return ui.PresenceOnStyle.Render("Discord ○")
}

// RenderStatusBar renders playback state, track, volume and presence.
func (m *Model) RenderStatusBar() string {
	var parts []string
	switch {
	case m.Playing != nil:
		parts = append(parts,
			ui.StatusPlayingStyle.Render("▶ Playing"),
			lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Render(m.Playing.Name))
	case m.PlayingID != "":
		parts = append(parts, ui.StatusPlayingStyle.Render("◌ Connecting"))
	default:
		parts = append(parts, ui.StatusStoppedStyle.Render("■ Stopped"))
	}
	if m.TrackTitle != "" {
		parts = append(parts, ui.TrackInfoStyle.Render("♫ "+m.TrackTitle))
	}
	parts = append(parts, fmt.Sprintf("vol %d%%", m.Volume), m.RenderPresence())
	return ui.StatusBarStyle.Render(strings.Join(parts, "  │  "))
}

// RenderAboutScreen renders the about dialog.
func (m *Model) RenderAboutScreen() string {
	content := fmt.Sprintf(`Radioss

Internet radio in the terminal, with Discord Rich Presence.

Version:  %s
Commit:   %s
Built:    %s

GitHub:   https://github.com/DasCanard/radioss
Stations: radio-browser.info

Press any key to close`, m.About.Version, m.About.Commit, m.About.Date)

	return ui.DialogBoxStyle.Render(content)
}

// PlaceOverlay draws fg over bg with its top-left corner at x, y.
func PlaceOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	for i, fgLine := range strings.Split(fg, "\n") {
		row := y + i
		if row < 0 || row >= len(bgLines) {
			continue
		}

		line := bgLines[row]
		width := ansi.StringWidth(line)
		if width < x {
			line += strings.Repeat(" ", x-width)
			width = x
		}

		right := ""
		if end := x + ansi.StringWidth(fgLine); end < width {
			right = ansi.TruncateLeft(line, end, "")
		}
		bgLines[row] = ansi.Truncate(line, x, "") + fgLine + right
	}
	return strings.Join(bgLines, "\n")
}

// View renders the application.
func (m *Model) View() string {
	if m.Loading {
		return ui.LoadingStyle.Render("◌ Loading stations...")
	}
	if m.Err != nil {
		return ui.ErrorBoxStyle.Render(fmt.Sprintf("✕ Error loading stations\n\n%v\n\nPress 'q' to quit", m.Err))
	}

	components := []string{"", m.RenderHeader()}
	if bar := m.RenderSearchBar(); bar != "" {
		components = append(components, bar)
	}
	components = append(components, m.List.View())
	if m.Notice != "" {
		components = append(components, ui.NoticeStyle.Render(ansi.Truncate(m.Notice, max(m.Width-4, 10), "…")))
	}
	components = append(components, m.RenderStatusBar())
	view := lipgloss.JoinVertical(lipgloss.Left, components...)

	var overlay string
	switch {
	case m.Form != nil:
		overlay = m.Form.View()
	case m.ShowAbout:
		overlay = m.RenderAboutScreen()
	default:
		return view
	}
	x := max((m.Width-lipgloss.Width(overlay))/2, 0)
	y := max((m.Height-lipgloss.Height(overlay))/2, 0)
	return PlaceOverlay(x, y, overlay, view)
}

// UpdateListSize fits the list between the header and the status bar.
func (m *Model) UpdateListSize() {
	fixed := 1 + lipgloss.Height(m.RenderHeader()) + lipgloss.Height(m.RenderStatusBar()) + 2 // notice line
	if bar := m.RenderSearchBar(); bar != "" {
		fixed += lipgloss.Height(bar)
	}
	m.List.SetSize(m.Width, max(m.Height-fixed, 0))
}
