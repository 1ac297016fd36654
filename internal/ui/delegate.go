package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"radioss/internal/stations"
)

// Item is a station row in the list.
type Item struct {
	Station  stations.Station
	Favorite bool
}

func (i Item) Title() string       { return i.Station.Name }
func (i Item) Description() string { return i.Station.Description() }
func (i Item) FilterValue() string { return i.Station.Name }

// Meta is the right-hand column: vote count for directory stations.
func (i Item) Meta() string {
	switch {
	case i.Station.IsCustom:
		return "custom"
	case i.Station.Votes > 0:
		return humanize.Comma(int64(i.Station.Votes)) + " ♥"
	default:
		return ""
	}
}

// StyledDelegate renders station rows in two columns.
type StyledDelegate struct {
	list.DefaultDelegate
	PlayingID    *string
	MatchChecker func(int) bool
}

// NewStyledDelegate creates the delegate. playingID is read on every render.
func NewStyledDelegate(playingID *string, matchChecker func(int) bool) StyledDelegate {
	d := list.NewDefaultDelegate()

	d.Styles.NormalTitle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 0, 0, 2)
	d.Styles.NormalDesc = lipgloss.NewStyle().
		Foreground(SubtleColor).
		Padding(0, 0, 0, 2)

	d.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(PrimaryColor).
		Foreground(PrimaryColor).
		Bold(true).
		Padding(0, 0, 0, 1)
	d.Styles.SelectedDesc = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(PrimaryColor).
		Foreground(lipgloss.Color("#CCCCCC")).
		Padding(0, 0, 0, 1)

	return StyledDelegate{DefaultDelegate: d, PlayingID: playingID, MatchChecker: matchChecker}
}

// rowStyle picks the title colour for an unselected row.
func rowStyle(color lipgloss.TerminalColor, width int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color).Padding(0, 0, 0, 2).Width(width)
}

// Render draws one station: title and meta on the first line, the
// description under it.
func (d StyledDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(Item)
	if !ok {
		return
	}

	isPlaying := d.PlayingID != nil && *d.PlayingID != "" && *d.PlayingID == i.Station.ID
	isSelected := index == m.Index()
	isMatch := d.MatchChecker != nil && d.MatchChecker(index)

	title := i.Title()
	if i.Favorite {
		title = "♥ " + title
	}
	if isPlaying {
		title = "▶ " + title
	}

	leftWidth, metaWidth := CalculateColumnWidths(m.Width())
	desc := ansi.Truncate(i.Description(), leftWidth-2, "…")
	metaStyle := lipgloss.NewStyle().Width(metaWidth).Align(lipgloss.Right)

	var titleStr, descStr string
	switch {
	case isSelected:
		// the left border takes one column
		titleStr = d.Styles.SelectedTitle.Width(leftWidth - 1).Render(title)
		descStr = d.Styles.SelectedDesc.Width(leftWidth - 1).Render(desc)
		metaStyle = metaStyle.Foreground(lipgloss.Color("#CCCCCC"))
	case isPlaying:
		titleStr = rowStyle(PlayingColor, leftWidth).Render(title)
		descStr = rowStyle(SubtleColor, leftWidth).Render(desc)
		metaStyle = metaStyle.Foreground(PlayingColor)
	case isMatch:
		titleStr = rowStyle(SearchMatchColor, leftWidth).Render(title)
		descStr = rowStyle(SubtleColor, leftWidth).Render(desc)
		metaStyle = metaStyle.Foreground(SearchMatchColor)
	default:
		titleStr = d.Styles.NormalTitle.Width(leftWidth).Render(title)
		descStr = d.Styles.NormalDesc.Width(leftWidth).Render(desc)
		metaStyle = metaStyle.Foreground(SubtleColor)
	}

	titleRow := lipgloss.JoinHorizontal(lipgloss.Top, titleStr, metaStyle.Render(i.Meta()))
	_, _ = fmt.Fprintf(w, "%s\n%s", titleRow, descStr)
}

const (
	metaColumnWidth    = 12
	minLeftColumnWidth = 20
)

// CalculateColumnWidths splits totalWidth into the title and meta columns.
func CalculateColumnWidths(totalWidth int) (leftCol, metaCol int) {
	metaCol = metaColumnWidth
	leftCol = max(totalWidth-metaCol-4, minLeftColumnWidth)
	return leftCol, metaCol
}
