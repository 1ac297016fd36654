//go:build !linux

package platform

// MPRIS is a no-op outside Linux.
type MPRIS struct{}

// NewMPRIS returns nil; callers treat a nil *MPRIS as disabled.
func NewMPRIS() (*MPRIS, error) {
	return nil, nil
}

func (m *MPRIS) SetSender(CmdSender)                      {}
func (m *MPRIS) SetPlaying(station, title, artURL string) {}
func (m *MPRIS) SetStopped()                              {}
func (m *MPRIS) SetVolume(percent int)                    {}
func (m *MPRIS) Close()                                   {}
