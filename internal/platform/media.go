// Package platform connects the player to desktop media controls.
package platform

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// CmdSender matches tea.Program's Send.
type CmdSender interface {
	Send(msg tea.Msg)
}

// Messages sent to the program when a media key or controller is used.
type (
	PlayMsg      struct{}
	StopMsg      struct{}
	PlayPauseMsg struct{}
	NextMsg      struct{}
	PrevMsg      struct{}
	QuitMsg      struct{}
	VolumeMsg    struct{ Percent int }
)

// SanitizeUTF8 drops invalid bytes. D-Bus rejects strings that are not valid
// UTF-8, and ICY titles often are not.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// SplitTitle splits an ICY title of the form "Artist - Track". Titles
// without the separator are returned as the track.
func SplitTitle(title string) (artist, track string) {
	if a, t, ok := strings.Cut(title, " - "); ok {
		return strings.TrimSpace(a), strings.TrimSpace(t)
	}
	return "", strings.TrimSpace(title)
}
