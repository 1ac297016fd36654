package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"radioss/internal/app"
	"radioss/internal/audio"
	"radioss/internal/config"
	"radioss/internal/stations"
	"radioss/internal/storage"
)

// isolate points every XDG directory at a temp dir and writes the config
// file, returning its path.
func isolate(t *testing.T, configTOML string) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(configTOML), 0644))
	return configPath
}

// execute runs the root command and returns stdout.
func execute(configPath string, args ...string) (string, error) {
	stationsOpts.output, stationsOpts.country, stationsOpts.tag, stationsOpts.limit = formatPlain, "", "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestWriteOutput(t *testing.T) {
	v := map[string]int{"volume": 70}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", v, nil))
	assert.JSONEq(t, `{"volume":70}`, buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "YAML", v, nil))
	assert.Equal(t, "volume: 70\n", buf.String())

	buf.Reset()
	called := false
	require.NoError(t, writeOutput(&buf, "", v, func(w io.Writer) error {
		called = true
		return nil
	}))
	assert.True(t, called)

	assert.ErrorContains(t, writeOutput(&buf, "xml", v, nil), "unknown output format")
}

func TestResolveLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, resolveLogLevel("error", true))
	assert.Equal(t, slog.LevelInfo, resolveLogLevel("info", false))
	assert.Equal(t, slog.LevelWarn, resolveLogLevel("", false))
	assert.Equal(t, slog.LevelWarn, resolveLogLevel("loud", false))
}

func TestPrintPresenceStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPresenceStatus(&buf, PresenceStatus{}))
	assert.Contains(t, buf.String(), "Discord processes: none")
	assert.Contains(t, buf.String(), "Reachable:         no")

	buf.Reset()
	require.NoError(t, printPresenceStatus(&buf, PresenceStatus{
		Processes: []string{"Discord", "DiscordCanary"},
		Sockets:   []string{"/run/user/1000/discord-ipc-0"},
		Reachable: true,
	}))
	assert.Contains(t, buf.String(), "Discord, DiscordCanary")
	assert.Contains(t, buf.String(), "/run/user/1000/discord-ipc-0")
	assert.Contains(t, buf.String(), "Reachable:         yes")
}

func TestPrintStationTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStationTable(&buf, nil))
	assert.Equal(t, "No stations found.\n", buf.String())

	buf.Reset()
	require.NoError(t, printStationTable(&buf, []stations.Station{
		{Name: "SWR3", Country: "Germany", Tags: []string{"pop"}, Votes: 12345},
	}))
	assert.Contains(t, buf.String(), "SWR3")
	assert.Contains(t, buf.String(), "Germany · pop")
	assert.Contains(t, buf.String(), "12,345")
}

func TestDataSetAndGet(t *testing.T) {
	conf := isolate(t, "")

	out, err := execute(conf, "data", "get", "volume")
	require.NoError(t, err)
	assert.Equal(t, "50\n", out)

	_, err = execute(conf, "data", "set", "volume", "70")
	require.NoError(t, err)

	out, err = execute(conf, "data", "get", "volume")
	require.NoError(t, err)
	assert.Equal(t, "70\n", out)
	assert.FileExists(t, filepath.Join(os.Getenv("XDG_DATA_HOME"), "radioss", "volume.json"))
}

func TestDataSetRejectsInvalidInput(t *testing.T) {
	conf := isolate(t, "")

	_, err := execute(conf, "data", "set", "volume", "{nope")
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = execute(conf, "data", "set", "../escape", "1")
	assert.Error(t, err)
}

func TestConfigErrorFailsCommand(t *testing.T) {
	conf := isolate(t, "[presence]\nipc_timeout = 12\n")

	_, err := execute(conf, "data", "get", "volume")
	assert.ErrorContains(t, err, "failed to load config")
}

func TestStationsTop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stations/topvote/2", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"stationuuid": "a", "name": "SWR3", "url": "http://swr3", "tags": "pop,rock", "votes": 1500},
			{"stationuuid": "b", "name": "Radio Paradise", "url": "http://rp", "votes": 900},
		})
	}))
	defer srv.Close()

	conf := isolate(t, "[radio]\napi_base_url = \""+srv.URL+"\"\n")

	out, err := execute(conf, "stations", "top", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "SWR3")
	assert.Contains(t, out, "1,500")

	out, err = execute(conf, "stations", "top", "-n", "2", "-o", "yaml")
	require.NoError(t, err)
	var list []stations.Station
	require.NoError(t, yaml.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Radio Paradise", list[1].Name)
}

func TestTUIOptionsWithoutAudioOrPresence(t *testing.T) {
	prevCfg, prevLogger, prevPlayer := cfg, logger, newPlayer
	t.Cleanup(func() { cfg, logger, newPlayer = prevCfg, prevLogger, prevPlayer })

	cfg = config.DefaultConfig()
	cfg.Presence.Enabled = false
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	newPlayer = func() (audio.Player, error) { return nil, errors.New("no output device") }

	opts := tuiOptions(storage.NewStore(t.TempDir(), logger))
	assert.Nil(t, opts.Player)
	require.NotNil(t, opts.Presence)

	m := app.New(opts)
	assert.False(t, m.PresenceEnabled)

	m.Update(app.ConfigReloadedMsg{Config: config.DefaultConfig()})
	assert.True(t, m.PresenceEnabled)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	assert.False(t, m.PresenceEnabled)
	require.NotNil(t, cmd)
	m.Shutdown()
}
