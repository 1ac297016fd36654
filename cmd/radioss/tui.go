package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"radioss/internal/app"
	"radioss/internal/audio"
	"radioss/internal/config"
	"radioss/internal/platform"
	"radioss/internal/storage"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive radio player",
	Long: `Launch the terminal radio player.

Key bindings:
  ↑/↓, j/k    Navigate stations
  enter       Play the selected station
  s           Stop
  d           Toggle Discord Rich Presence
  +/-         Volume
  f           Toggle favorite
  /           Search (n/N next/prev match, c clear)
  a           Add a custom station
  x           Remove the selected custom station
  i           About
  q           Quit

Logs are written to ~/.local/state/radioss/radioss.log while the TUI runs.
The config file is watched and presence settings apply immediately.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Logs would corrupt the alt screen
	logOut, closeLog := openLogFile()
	defer closeLog()
	setupLogger(logOut)

	store, err := newStore()
	if err != nil {
		return err
	}

	opts := tuiOptions(store)

	mpris, err := platform.NewMPRIS()
	if err != nil {
		logger.Warn("media keys unavailable", "error", err)
	}
	defer mpris.Close()
	opts.MPRIS = mpris

	m := app.New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	mpris.SetSender(p)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	watcher := config.NewWatcher(globalOpts.configPath, logger)
	watcher.SetChangeCallback(func(c *config.Config) {
		p.Send(app.ConfigReloadedMsg{Config: c})
	})
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("config reload disabled", "error", err)
	}
	defer watcher.Stop()

	_, err = p.Run()
	// Runs off the UI goroutine; waits for queued presence updates.
	m.Shutdown()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// newPlayer opens the audio output device.
var newPlayer = func() (audio.Player, error) {
	p, err := audio.NewPlayer(cfg.Radio.UserAgent, cfg.Player.Volume, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// tuiOptions wires the model's collaborators. A missing audio device leaves
// the player nil; the TUI still browses stations and reports the failure
// when playback is attempted.
func tuiOptions(store *storage.Store) app.Options {
	opts := app.Options{
		Store:  store,
		Client: newClient(),
		Config: cfg,
		About:  app.AboutInfo{Version: version, Commit: commit, Date: buildTime},
		Logger: logger,
	}

	player, err := newPlayer()
	if err != nil {
		logger.Warn("audio unavailable, playback disabled", "error", err)
	} else {
		opts.Player = player
	}

	// The session only dials on first publish, so it is built even when
	// presence is disabled; a config reload or the d key can enable it.
	opts.Presence = newSession()
	return opts
}

// openLogFile opens the TUI log in the state directory, discarding logs if
// that is not possible.
func openLogFile() (io.Writer, func()) {
	dir := config.StatePath()
	if err := config.EnsureDir(dir); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "radioss.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}
