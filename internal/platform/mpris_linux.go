//go:build linux

package platform

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	mprisPath       = "/org/mpris/MediaPlayer2"
	rootInterface   = "org.mpris.MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"
	busName         = "org.mpris.MediaPlayer2.radioss"
	trackID         = dbus.ObjectPath("/org/mpris/MediaPlayer2/Track/1")
)

type property struct {
	name     string
	sig      string
	value    any
	writable bool
}

var rootProps = []property{
	{"CanQuit", "b", true, false},
	{"CanRaise", "b", false, false},
	{"HasTrackList", "b", false, false},
	{"Identity", "s", "Radioss", false},
	{"DesktopEntry", "s", "radioss", false},
	{"SupportedMimeTypes", "as", []string{"audio/mpeg", "audio/aac"}, false},
	{"SupportedUriSchemes", "as", []string{"http", "https"}, false},
}

var playerProps = []property{
	{"PlaybackStatus", "s", "Stopped", false},
	{"Metadata", "a{sv}", map[string]dbus.Variant{}, false},
	{"Volume", "d", 0.5, true},
	{"Position", "x", int64(0), false},
	{"Rate", "d", 1.0, false},
	{"MinimumRate", "d", 1.0, false},
	{"MaximumRate", "d", 1.0, false},
	{"CanControl", "b", true, false},
	{"CanPlay", "b", true, false},
	{"CanPause", "b", true, false},
	{"CanGoNext", "b", true, false},
	{"CanGoPrevious", "b", true, false},
	{"CanSeek", "b", false, false},
}

// MPRIS exposes the player on the session bus.
type MPRIS struct {
	conn  *dbus.Conn
	props *prop.Properties

	mu     sync.Mutex
	sender CmdSender
}

// NewMPRIS claims the radioss bus name and exports the MediaPlayer2
// interfaces.
func NewMPRIS() (*MPRIS, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	m := &MPRIS{conn: conn}
	if err := m.export(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, fmt.Errorf("bus name %s already taken", busName)
	}
	return m, nil
}

func (m *MPRIS) export() error {
	if err := m.conn.Export(mprisRoot{m}, mprisPath, rootInterface); err != nil {
		return fmt.Errorf("failed to export root interface: %w", err)
	}
	if err := m.conn.Export(mprisPlayer{m}, mprisPath, playerInterface); err != nil {
		return fmt.Errorf("failed to export player interface: %w", err)
	}

	ifaces := map[string]map[string]*prop.Prop{
		rootInterface:   propMap(rootProps, nil),
		playerInterface: propMap(playerProps, m.onVolumeChange),
	}
	props, err := prop.Export(m.conn, mprisPath, ifaces)
	if err != nil {
		return fmt.Errorf("failed to export properties: %w", err)
	}
	m.props = props

	node := &introspect.Node{
		Name: mprisPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       rootInterface,
				Methods:    []introspect.Method{{Name: "Quit"}, {Name: "Raise"}},
				Properties: introspectProps(rootProps),
			},
			{
				Name: playerInterface,
				Methods: []introspect.Method{
					{Name: "Next"}, {Name: "Previous"}, {Name: "Pause"},
					{Name: "PlayPause"}, {Name: "Stop"}, {Name: "Play"},
					{Name: "OpenUri", Args: []introspect.Arg{{Name: "Uri", Type: "s", Direction: "in"}}},
				},
				Properties: introspectProps(playerProps),
			},
		},
	}
	if err := m.conn.Export(introspect.NewIntrospectable(node), mprisPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}
	return nil
}

func propMap(list []property, onChange func(*prop.Change) *dbus.Error) map[string]*prop.Prop {
	out := make(map[string]*prop.Prop, len(list))
	for _, p := range list {
		pr := &prop.Prop{Value: p.value, Writable: p.writable, Emit: prop.EmitTrue}
		if p.writable {
			pr.Callback = onChange
		}
		out[p.name] = pr
	}
	return out
}

func introspectProps(list []property) []introspect.Property {
	out := make([]introspect.Property, 0, len(list))
	for _, p := range list {
		access := "read"
		if p.writable {
			access = "readwrite"
		}
		out = append(out, introspect.Property{Name: p.name, Type: p.sig, Access: access})
	}
	return out
}

// SetSender routes media key presses to the program.
func (m *MPRIS) SetSender(sender CmdSender) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sender = sender
}

func (m *MPRIS) send(msg tea.Msg) {
	if m == nil {
		return
	}
	m.mu.Lock()
	sender := m.sender
	m.mu.Unlock()
	if sender != nil {
		sender.Send(msg)
	}
}

func (m *MPRIS) onVolumeChange(c *prop.Change) *dbus.Error {
	v, ok := c.Value.(float64)
	if !ok {
		return prop.ErrInvalidArg
	}
	m.send(VolumeMsg{Percent: int(min(max(v, 0), 1) * 100)})
	return nil
}

// SetPlaying publishes the station and current track. An empty artURL is
// left out of the metadata.
func (m *MPRIS) SetPlaying(station, title, artURL string) {
	if m == nil || m.props == nil {
		return
	}
	m.props.SetMust(playerInterface, "Metadata", trackMetadata(station, title, artURL))
	m.props.SetMust(playerInterface, "PlaybackStatus", "Playing")
}

// SetStopped clears the metadata.
func (m *MPRIS) SetStopped() {
	if m == nil || m.props == nil {
		return
	}
	m.props.SetMust(playerInterface, "PlaybackStatus", "Stopped")
	m.props.SetMust(playerInterface, "Metadata", map[string]dbus.Variant{})
}

// SetVolume mirrors the player volume, 0-100.
func (m *MPRIS) SetVolume(percent int) {
	if m == nil || m.props == nil {
		return
	}
	m.props.SetMust(playerInterface, "Volume", float64(min(max(percent, 0), 100))/100)
}

// Close releases the bus name.
func (m *MPRIS) Close() {
	if m == nil || m.conn == nil {
		return
	}
	_, _ = m.conn.ReleaseName(busName)
	_ = m.conn.Close()
}

func trackMetadata(station, title, artURL string) map[string]dbus.Variant {
	artist, track := SplitTitle(SanitizeUTF8(title))
	if track == "" {
		track = SanitizeUTF8(station)
	}
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackID),
		"xesam:title":   dbus.MakeVariant(track),
		"xesam:album":   dbus.MakeVariant(SanitizeUTF8(station)),
	}
	if artist != "" {
		md["xesam:artist"] = dbus.MakeVariant([]string{artist})
	}
	if artURL != "" {
		md["mpris:artUrl"] = dbus.MakeVariant(artURL)
	}
	return md
}

type mprisRoot struct{ m *MPRIS }

func (r mprisRoot) Raise() *dbus.Error { return nil }

func (r mprisRoot) Quit() *dbus.Error {
	r.m.send(QuitMsg{})
	return nil
}

type mprisPlayer struct{ m *MPRIS }

func (p mprisPlayer) Next() *dbus.Error {
	p.m.send(NextMsg{})
	return nil
}

func (p mprisPlayer) Previous() *dbus.Error {
	p.m.send(PrevMsg{})
	return nil
}

func (p mprisPlayer) Pause() *dbus.Error {
	p.m.send(StopMsg{})
	return nil
}

func (p mprisPlayer) Stop() *dbus.Error {
	p.m.send(StopMsg{})
	return nil
}

func (p mprisPlayer) PlayPause() *dbus.Error {
	p.m.send(PlayPauseMsg{})
	return nil
}

func (p mprisPlayer) Play() *dbus.Error {
	p.m.send(PlayMsg{})
	return nil
}

func (p mprisPlayer) OpenUri(string) *dbus.Error { return nil }
