package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"radioss/internal/stations"
)

var stationsOpts struct {
	output  string
	country string
	tag     string
	limit   int
}

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Query the radio-browser station directory",
}

var stationsCountriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List countries with their station counts",
	Args:  cobra.NoArgs,
	RunE:  runStationsCountries,
}

var stationsSearchCmd = &cobra.Command{
	Use:   "search [NAME]",
	Short: "Search stations by name, country and tag",
	Long: `Search the directory. Every filter is optional.

Examples:
  radioss stations search jazz
  radioss stations search --country Germany --tag rock
  radioss stations search "radio paradise" -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStationsSearch,
}

var stationsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List the most voted stations",
	Args:  cobra.NoArgs,
	RunE:  runStationsTop,
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.AddCommand(stationsCountriesCmd, stationsSearchCmd, stationsTopCmd)

	stationsCmd.PersistentFlags().StringVarP(&stationsOpts.output, "output", "o", formatPlain,
		"Output format (plain, json, yaml)")
	stationsCmd.PersistentFlags().IntVarP(&stationsOpts.limit, "limit", "n", 0,
		"Maximum number of results (default: radio.limit from config)")
	stationsSearchCmd.Flags().StringVar(&stationsOpts.country, "country", "",
		"Exact country name")
	stationsSearchCmd.Flags().StringVar(&stationsOpts.tag, "tag", "",
		"Genre tag")
}

func stationsLimit() int {
	if stationsOpts.limit > 0 {
		return stationsOpts.limit
	}
	return cfg.Radio.Limit
}

func runStationsCountries(cmd *cobra.Command, args []string) error {
	countries, err := newClient().Countries(cmd.Context())
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), stationsOpts.output, countries, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range countries {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, humanize.Comma(int64(c.StationCount)))
		}
		return tw.Flush()
	})
}

func runStationsSearch(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	list, err := newClient().Search(cmd.Context(), name, stationsOpts.country, stationsOpts.tag, stationsLimit())
	if err != nil {
		return err
	}
	return printStations(cmd.OutOrStdout(), list)
}

func runStationsTop(cmd *cobra.Command, args []string) error {
	list, err := newClient().TopVoted(cmd.Context(), stationsLimit())
	if err != nil {
		return err
	}
	return printStations(cmd.OutOrStdout(), list)
}

func printStations(w io.Writer, list []stations.Station) error {
	return writeOutput(w, stationsOpts.output, list, func(w io.Writer) error {
		return printStationTable(w, list)
	})
}

// printStationTable prints one station per line: name, description, votes.
func printStationTable(w io.Writer, list []stations.Station) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No stations found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, st := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", st.Name, st.Description(), humanize.Comma(int64(st.Votes)))
	}
	return tw.Flush()
}
