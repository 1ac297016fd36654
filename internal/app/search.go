package app

import (
	"slices"
	"strings"
	"unicode"

	"radioss/internal/ui"
)

// IsValidSearchChar reports whether r may be typed into the search bar.
func IsValidSearchChar(r rune) bool {
	return unicode.IsPrint(r) && !unicode.IsControl(r)
}

// UpdateSearchMatches finds stations whose name, country or tags contain
// the query and jumps to the first one.
func (m *Model) UpdateSearchMatches() {
	m.SearchMatches = nil
	m.CurrentMatch = -1
	if m.SearchQuery == "" {
		return
	}
	query := strings.ToLower(m.SearchQuery)
	for idx, li := range m.List.Items() {
		it, ok := li.(ui.Item)
		if !ok {
			continue
		}
		haystack := strings.ToLower(it.Station.Name + "\x00" + it.Station.Country + "\x00" + strings.Join(it.Station.Tags, "\x00"))
		if strings.Contains(haystack, query) {
			m.SearchMatches = append(m.SearchMatches, idx)
		}
	}
	if len(m.SearchMatches) > 0 {
		m.CurrentMatch = 0
		m.List.Select(m.SearchMatches[0])
	}
}

// NextMatch jumps to the next search match.
func (m *Model) NextMatch() {
	if len(m.SearchMatches) == 0 {
		return
	}
	m.CurrentMatch = (m.CurrentMatch + 1) % len(m.SearchMatches)
	m.List.Select(m.SearchMatches[m.CurrentMatch])
}

// PrevMatch jumps to the previous search match.
func (m *Model) PrevMatch() {
	if len(m.SearchMatches) == 0 {
		return
	}
	m.CurrentMatch--
	if m.CurrentMatch < 0 {
		m.CurrentMatch = len(m.SearchMatches) - 1
	}
	m.List.Select(m.SearchMatches[m.CurrentMatch])
}

// ClearSearch resets the search state.
func (m *Model) ClearSearch() {
	m.Searching = false
	m.SearchQuery = ""
	m.SearchMatches = nil
	m.CurrentMatch = -1
}

// IsMatch reports whether idx is a search match.
func (m *Model) IsMatch(idx int) bool {
	return slices.Contains(m.SearchMatches, idx)
}
