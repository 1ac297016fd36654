package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"radioss/internal/discordipc"
	"radioss/internal/mpdsource"
	"radioss/internal/presence"
	"radioss/internal/stations"
)

var presenceCmd = &cobra.Command{
	Use:   "presence",
	Short: "Discord Rich Presence tools",
}

var presenceStatusOpts struct {
	output string
}

// PresenceStatus describes whether Discord can be reached.
type PresenceStatus struct {
	Processes []string `json:"processes" yaml:"processes"`
	Sockets   []string `json:"sockets" yaml:"sockets"`
	Reachable bool     `json:"reachable" yaml:"reachable"`
}

var presenceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Discord client is running and reachable",
	RunE:  runPresenceStatus,
}

var presenceSetOpts struct {
	tags     string
	duration time.Duration
}

var presenceSetCmd = &cobra.Command{
	Use:   "set NAME",
	Short: "Show a station as Rich Presence until interrupted",
	Long: `Connect to Discord and show NAME as the station being listened to.

The activity stays visible until radioss is interrupted (Ctrl+C) or, with
--for, until the duration elapses.

Examples:
  radioss presence set "SWR3"
  radioss presence set "Radio Paradise" --tags "eclectic,rock" --for 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runPresenceSet,
}

var presenceMPDCmd = &cobra.Command{
	Use:   "mpd",
	Short: "Mirror an MPD server's playback to Rich Presence",
	Long: `Poll the MPD server from the [mpd] config section and show what it
plays as Rich Presence. Pausing or stopping MPD clears the activity.`,
	RunE: runPresenceMPD,
}

func init() {
	rootCmd.AddCommand(presenceCmd)
	presenceCmd.AddCommand(presenceStatusCmd, presenceSetCmd, presenceMPDCmd)

	presenceStatusCmd.Flags().StringVarP(&presenceStatusOpts.output, "output", "o", formatPlain,
		"Output format (plain, json, yaml)")

	presenceSetCmd.Flags().StringVar(&presenceSetOpts.tags, "tags", "",
		"Comma-separated station tags shown as the activity state")
	presenceSetCmd.Flags().DurationVar(&presenceSetOpts.duration, "for", 0,
		"Clear the activity after this long (default: until interrupted)")
}

func newSession() *presence.Session {
	return presence.NewSession(discordipc.NewDialer(cfg.IPCTimeout(), logger), logger)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runPresenceStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.IPCTimeout())
	defer cancel()

	status := PresenceStatus{Sockets: discordipc.ExistingSocketPaths()}
	procs, err := discordipc.Running(ctx)
	if err != nil {
		logger.Warn("process detection failed", "error", err)
	}
	status.Processes = procs

	session := newSession()
	if err := session.Connect(); err != nil {
		logger.Debug("discord not reachable", "error", err)
	} else {
		status.Reachable = true
		_ = session.Disconnect()
	}

	return writeOutput(cmd.OutOrStdout(), presenceStatusOpts.output, status, func(w io.Writer) error {
		return printPresenceStatus(w, status)
	})
}

func printPresenceStatus(w io.Writer, status PresenceStatus) error {
	procs := "none"
	if len(status.Processes) > 0 {
		procs = strings.Join(status.Processes, ", ")
	}
	sockets := "none"
	if len(status.Sockets) > 0 {
		sockets = strings.Join(status.Sockets, ", ")
	}
	reachable := "no"
	if status.Reachable {
		reachable = "yes"
	}
	_, err := fmt.Fprintf(w, "Discord processes: %s\nIPC sockets:       %s\nReachable:         %s\n",
		procs, sockets, reachable)
	return err
}

func runPresenceSet(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()
	if presenceSetOpts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, presenceSetOpts.duration)
		defer cancel()
	}

	session := newSession()
	defer session.Disconnect()

	if err := session.Connect(); err != nil {
		return err
	}
	tags := stations.PresenceTags(stations.SplitTags(presenceSetOpts.tags),
		cfg.Presence.MaxTags, cfg.Presence.TagSeparator)
	if err := session.Update(args[0], tags); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Showing %q on Discord, press Ctrl+C to stop\n", args[0])
	<-ctx.Done()
	return session.Clear()
}

func runPresenceMPD(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logger.Info("mirroring mpd", "address", cfg.MPD.Address)
	return mpdsource.NewBridge(cfg, newSession(), logger).Run(ctx)
}
