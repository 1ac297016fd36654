package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Read or write stored user data",
	Long: `Read or write the JSON documents radioss keeps in its data directory:
customStations, favorites, favoritedStations, volume, discordRPCEnabled,
minimizeToTrayEnabled and lastStation.`,
}

var dataGetCmd = &cobra.Command{
	Use:   "get TYPE",
	Short: "Print a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataGet,
}

var dataSetCmd = &cobra.Command{
	Use:   "set TYPE [JSON]",
	Short: "Replace a stored document (reads stdin without JSON)",
	Long: `Replace a stored document.

Examples:
  radioss data set volume 70
  radioss data set favorites '["9617a958-0601-11e8-ae97-52543be04c81"]'
  radioss data get customStations | jq . > backup.json && radioss data set customStations < backup.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDataSet,
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataGetCmd, dataSetCmd)
}

func runDataGet(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	data, err := store.Load(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runDataSet(cmd *cobra.Command, args []string) error {
	var raw []byte
	if len(args) == 2 {
		raw = []byte(args[1])
	} else {
		var err error
		raw, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}
	if !json.Valid(raw) {
		return fmt.Errorf("invalid JSON for %s", args[0])
	}

	store, err := newStore()
	if err != nil {
		return err
	}
	if err := store.Save(args[0], json.RawMessage(raw)); err != nil {
		return err
	}
	logger.Info("saved data", "type", args[0])
	fmt.Fprintln(cmd.ErrOrStderr(), "saved", args[0])
	return nil
}
