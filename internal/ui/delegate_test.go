package ui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	"github.com/stretchr/testify/assert"

	"radioss/internal/stations"
)

func testItems() []Item {
	return []Item{
		{Station: stations.Station{ID: "1live", Name: "1LIVE", Country: "Germany", Tags: []string{"pop", "rock"}, Bitrate: 128, Votes: 12345}},
		{Station: stations.Station{ID: "swr3", Name: "SWR3", Country: "Germany", Tags: []string{"pop"}, Votes: 900}, Favorite: true},
		{Station: stations.Station{ID: "custom-1", Name: "My Stream", IsCustom: true}},
	}
}

func newTestList(playingID *string, matchChecker func(int) bool) (list.Model, StyledDelegate) {
	src := testItems()
	items := make([]list.Item, len(src))
	for i, it := range src {
		items[i] = it
	}
	delegate := NewStyledDelegate(playingID, matchChecker)
	l := list.New(items, delegate, 80, 24)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	return l, delegate
}

func render(d StyledDelegate, l list.Model, idx int) string {
	var buf bytes.Buffer
	d.Render(&buf, l, idx, l.Items()[idx])
	return buf.String()
}

func TestDelegateRender(t *testing.T) {
	playingID := ""
	l, d := newTestList(&playingID, nil)

	selected := render(d, l, 0)
	assert.Contains(t, selected, "1LIVE")
	assert.Contains(t, selected, "12,345 ♥")
	assert.Contains(t, selected, "Germany · pop, rock · 128 kbps")
	assert.NotContains(t, selected, "▶")

	custom := render(d, l, 2)
	assert.Contains(t, custom, "My Stream")
	assert.Contains(t, custom, "custom")
}

func TestDelegateRender_Playing(t *testing.T) {
	playingID := "swr3"
	l, d := newTestList(&playingID, nil)

	out := render(d, l, 1)
	assert.Contains(t, out, "▶ ♥ SWR3")

	playingID = ""
	assert.NotContains(t, render(d, l, 1), "▶")
}

func TestDelegateRender_SearchMatch(t *testing.T) {
	playingID := ""
	l, d := newTestList(&playingID, func(idx int) bool { return idx == 2 })
	assert.Contains(t, render(d, l, 2), "My Stream")
}

type otherItem struct{}

func (otherItem) FilterValue() string { return "" }

func TestDelegateRender_InvalidItem(t *testing.T) {
	playingID := ""
	l, d := newTestList(&playingID, nil)

	var buf bytes.Buffer
	d.Render(&buf, l, 0, otherItem{})
	assert.Empty(t, buf.String())
}

func TestItemMeta(t *testing.T) {
	assert.Equal(t, "", Item{Station: stations.Station{}}.Meta())
	assert.Equal(t, "1,000,000 ♥", Item{Station: stations.Station{Votes: 1000000}}.Meta())
	assert.Equal(t, "custom", Item{Station: stations.Station{IsCustom: true, Votes: 5}}.Meta())
}

func TestCalculateColumnWidths(t *testing.T) {
	left, meta := CalculateColumnWidths(80)
	assert.Equal(t, 64, left)
	assert.Equal(t, 12, meta)

	left, _ = CalculateColumnWidths(10)
	assert.Equal(t, minLeftColumnWidth, left)
}
