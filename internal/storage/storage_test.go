package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radioss/internal/stations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "radioss"), nil)
}

func TestLoad_CreatesDefaults(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		dataType string
		want     string
	}{
		{TypeCustomStations, `[]`},
		{TypeFavorites, `[]`},
		{TypeFavoritedStations, `[]`},
		{TypeVolume, `50`},
		{TypeDiscordRPCEnabled, `true`},
		{TypeMinimizeToTray, `false`},
		{"somethingElse", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			data, err := s.Load(tt.dataType)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			path, err := s.Path(tt.dataType)
			require.NoError(t, err)
			onDisk, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(onDisk))
		})
	}
}

func TestSaveAndLoad_PassThrough(t *testing.T) {
	s := newTestStore(t)

	blob := json.RawMessage(`{"theme":"dark","nested":{"list":[1,2,3]}}`)
	require.NoError(t, s.Save("uiSettings", blob))

	loaded, err := s.Load("uiSettings")
	require.NoError(t, err)
	assert.JSONEq(t, string(blob), string(loaded))

	// Stored pretty-printed.
	path, _ := s.Path("uiSettings")
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "\n  ")
}

func TestSave_KeepsLargeIntegers(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("uiSettings", json.RawMessage(`{"id":12345678901234567890,"ratio":0.1000}`)))

	loaded, err := s.Load("uiSettings")
	require.NoError(t, err)
	assert.Contains(t, string(loaded), "12345678901234567890")
	assert.Contains(t, string(loaded), "0.1000")
}

func TestSave_RejectsInvalidJSON(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Save("volume", json.RawMessage(`{broken`)))
}

func TestLoad_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0755))
	path, _ := s.Path(TypeVolume)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	_, err := s.Load(TypeVolume)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestInvalidTypeNames(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"", "../etc/passwd", "a/b", "with space"} {
		_, err := s.Load(name)
		assert.ErrorIs(t, err, ErrInvalidType, name)
		assert.ErrorIs(t, s.Save(name, json.RawMessage(`1`)), ErrInvalidType, name)
	}
}

func TestToggleFavorite(t *testing.T) {
	s := newTestStore(t)
	st := stations.Station{ID: "abc", Name: "Jazz FM", URL: "http://example.com/jazz"}

	fav, err := s.ToggleFavorite(st)
	require.NoError(t, err)
	assert.True(t, fav)

	ids, err := s.Favorites()
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, ids)

	list, err := s.FavoritedStations()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Jazz FM", list[0].Name)

	fav, err = s.ToggleFavorite(st)
	require.NoError(t, err)
	assert.False(t, fav)

	ids, err = s.Favorites()
	require.NoError(t, err)
	assert.Empty(t, ids)
	list, err = s.FavoritedStations()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToggleFavorite_Concurrent(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.ToggleFavorite(stations.Station{ID: string(rune('a' + i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := s.Favorites()
	require.NoError(t, err)
	assert.Len(t, ids, 10)
}

func TestCustomStations(t *testing.T) {
	s := newTestStore(t)

	st, err := stations.NewCustomStation("My Stream", "https://radio.example.com/live", "rock")
	require.NoError(t, err)
	require.NoError(t, s.AddCustomStation(st))

	list, err := s.CustomStations()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, st.ID, list[0].ID)
	assert.True(t, list[0].IsCustom)

	require.NoError(t, s.RemoveCustomStation(st.ID))
	list, err = s.CustomStations()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestVolume(t *testing.T) {
	s := newTestStore(t)

	v, err := s.Volume()
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	require.NoError(t, s.SetVolume(80))
	v, err = s.Volume()
	require.NoError(t, err)
	assert.Equal(t, 80, v)

	assert.Error(t, s.SetVolume(101))
}

func TestPresenceEnabled(t *testing.T) {
	s := newTestStore(t)

	enabled, err := s.PresenceEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, s.SetPresenceEnabled(false))
	enabled, err = s.PresenceEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestLastStation(t *testing.T) {
	s := newTestStore(t)

	id, err := s.LastStation()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.SetLastStation("groovesalad"))
	id, err = s.LastStation()
	require.NoError(t, err)
	assert.Equal(t, "groovesalad", id)
}
