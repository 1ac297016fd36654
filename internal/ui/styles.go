package ui

import "github.com/charmbracelet/lipgloss"

// Palette follows Discord's brand colors.
var (
	TitleColor       = lipgloss.Color("#5865F2")
	PrimaryColor     = lipgloss.Color("#EB459E")
	PlayingColor     = lipgloss.Color("#57F287")
	ErrorColor       = lipgloss.Color("#ED4245")
	SubtleColor      = lipgloss.Color("#72767D")
	SearchMatchColor = lipgloss.Color("#FEE75C")
	PresenceColor    = TitleColor
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TitleColor).
			MarginLeft(2)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	StatusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			MarginTop(1)

	StatusPlayingStyle = lipgloss.NewStyle().
				Foreground(PlayingColor).
				Bold(true)

	StatusStoppedStyle = lipgloss.NewStyle().
				Foreground(SubtleColor)

	TrackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC")).
			Italic(true)

	PresenceOnStyle = lipgloss.NewStyle().
			Foreground(PresenceColor)

	PresenceOffStyle = lipgloss.NewStyle().
				Foreground(SubtleColor)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			MarginLeft(2)

	LoadingStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Padding(1, 2)

	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Foreground(ErrorColor).
			Padding(1, 2).
			MarginTop(2).
			MarginLeft(2)

	DialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(TitleColor).
			Background(lipgloss.Color("#2B2D31")).
			Padding(1, 2)

	InputBarStyle = lipgloss.NewStyle().
			Foreground(SearchMatchColor).
			MarginLeft(2)
)
