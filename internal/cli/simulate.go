package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"matchfeatures/internal/app"
)

var (
	simulateSeason    string
	simulateStandings string
	simulateModel     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [match-id|event-log.csv]",
	Short: "Estimate result probabilities and expected points from shot xG",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SimulateOptions{
			Season:    simulateSeason,
			Standings: simulateStandings,
			Model:     simulateModel,
		}
		if len(args) == 1 {
			opts.Match = args[0]
		}
		if opts.Match == "" && opts.Season == "" {
			return errors.New("give a match or --season")
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSeason, "season", "", "Simulate every event log of this season folder")
	simulateCmd.Flags().StringVar(&simulateStandings, "standings", "", "CSV with Team, Points, Position for the season table")
	simulateCmd.Flags().StringVar(&simulateModel, "model", "", "Binomial or Poisson (default both)")
}
