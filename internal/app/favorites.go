package app

import (
	"slices"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"radioss/internal/stations"
	"radioss/internal/ui"
)

// buildItems merges custom stations, favorites and the directory into list
// items. Favorites come first; the order inside each group is kept.
func (m *Model) buildItems() []list.Item {
	var custom, favorites []stations.Station
	favIDs := map[string]bool{}
	if m.Store != nil {
		var err error
		if custom, err = m.Store.CustomStations(); err != nil {
			m.Logger.Warn("failed to load custom stations", "error", err)
		}
		if favorites, err = m.Store.FavoritedStations(); err != nil {
			m.Logger.Warn("failed to load favorites", "error", err)
		}
		ids, err := m.Store.Favorites()
		if err != nil {
			m.Logger.Warn("failed to load favorites", "error", err)
		}
		for _, id := range ids {
			favIDs[id] = true
		}
	}

	seen := map[string]bool{}
	var out []ui.Item
	add := func(list []stations.Station) {
		for _, st := range list {
			if st.ID == "" || seen[st.ID] {
				continue
			}
			seen[st.ID] = true
			out = append(out, ui.Item{Station: st, Favorite: favIDs[st.ID]})
		}
	}
	add(favorites)
	add(custom)
	add(m.directory)

	slices.SortStableFunc(out, func(a, b ui.Item) int {
		switch {
		case a.Favorite && !b.Favorite:
			return -1
		case !a.Favorite && b.Favorite:
			return 1
		}
		return 0
	})

	items := make([]list.Item, len(out))
	for i, it := range out {
		items[i] = it
	}
	return items
}

// setItems rebuilds the list and keeps the cursor on the station with
// selectID if it is still there.
func (m *Model) setItems(selectID string) {
	items := m.buildItems()
	m.List.SetItems(items)
	for i, li := range items {
		if it, ok := li.(ui.Item); ok && it.Station.ID == selectID {
			m.List.Select(i)
			break
		}
	}
	if m.SearchQuery != "" {
		m.UpdateSearchMatches()
	}
}

// ToggleFavorite flips the favorite flag of the selected station.
func (m *Model) ToggleFavorite() tea.Cmd {
	st, ok := m.SelectedStation()
	if !ok || m.Store == nil {
		return nil
	}
	fav, err := m.Store.ToggleFavorite(st)
	if err != nil {
		m.Notice = "Could not save favorite: " + err.Error()
		return nil
	}
	m.setItems(st.ID)
	if fav {
		m.Notice = "♥ " + st.Name
	}
	return nil
}

// IsFavorite reports whether the item at idx is a favorite.
func (m *Model) IsFavorite(idx int) bool {
	items := m.List.Items()
	if idx < 0 || idx >= len(items) {
		return false
	}
	it, ok := items[idx].(ui.Item)
	return ok && it.Favorite
}
