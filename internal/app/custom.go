package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"radioss/internal/stations"
	"radioss/internal/ui"
)

const (
	fieldName = iota
	fieldURL
	fieldTags
	fieldCount
)

// customForm collects name, stream URL and tags for a new station.
type customForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    error
}

func newCustomForm() *customForm {
	f := &customForm{}
	placeholders := [fieldCount]string{"Station name", "https://stream.example.com/live.mp3", "rock, indie (optional)"}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 256
		in.Width = 48
		f.inputs[i] = in
	}
	f.inputs[fieldName].Focus()
	return f
}

func (f *customForm) next(step int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + step + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// station validates the form.
func (f *customForm) station() (stations.Station, error) {
	return stations.NewCustomStation(
		strings.TrimSpace(f.inputs[fieldName].Value()),
		strings.TrimSpace(f.inputs[fieldURL].Value()),
		f.inputs[fieldTags].Value(),
	)
}

// updateForm handles keys while the form is open.
func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	f := m.Form
	switch msg.String() {
	case "esc":
		m.Form = nil
		return nil
	case "tab", "down":
		f.next(1)
		return nil
	case "shift+tab", "up":
		f.next(-1)
		return nil
	case "enter":
		if f.focus < fieldTags {
			f.next(1)
			return nil
		}
		st, err := f.station()
		if err != nil {
			f.err = err
			return nil
		}
		if m.Store != nil {
			if err := m.Store.AddCustomStation(st); err != nil {
				f.err = err
				return nil
			}
		}
		m.Form = nil
		m.setItems(st.ID)
		m.Notice = "Added " + st.Name
		return nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.err = nil
	return cmd
}

// RemoveSelectedCustom deletes the selected station if it is a custom one.
func (m *Model) RemoveSelectedCustom() {
	st, ok := m.SelectedStation()
	if !ok || !st.IsCustom || m.Store == nil {
		return
	}
	if err := m.Store.RemoveCustomStation(st.ID); err != nil {
		m.Notice = "Could not remove station: " + err.Error()
		return
	}
	m.setItems("")
	m.Notice = "Removed " + st.Name
}

func (f *customForm) View() string {
	labels := [fieldCount]string{"Name", "URL ", "Tags"}
	rows := []string{ui.TitleStyle.UnsetMarginLeft().Render("Add custom station"), ""}
	for i, in := range f.inputs {
		rows = append(rows, labels[i]+"  "+in.View())
	}
	rows = append(rows, "")
	if f.err != nil {
		rows = append(rows, lipgloss.NewStyle().Foreground(ui.ErrorColor).Render(f.err.Error()), "")
	}
	rows = append(rows, lipgloss.NewStyle().Foreground(ui.SubtleColor).Render("tab next field • enter save • esc cancel"))
	return ui.DialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
