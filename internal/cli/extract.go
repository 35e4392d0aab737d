package cli

import (
	"github.com/spf13/cobra"

	"matchfeatures/internal/app"
)

var (
	extractSeason  string
	extractWorkers int
	extractDryRun  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [match-dir|match-id]...",
	Short: "Build the interval feature file of each match",
	Long: "Build features_<match>.csv for the given matches, or for every match folder\n" +
		"under paths.gps_root (optionally one --season) when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExtractOptions{
			Season:  extractSeason,
			Matches: args,
			Workers: extractWorkers,
			DryRun:  extractDryRun,
		}
		return getApp().Extract(cmd.Context(), opts)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSeason, "season", "", "Only process this season folder, e.g. ipl2425")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "Matches processed concurrently (defaults to config)")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "Write feature files without touching the database")
}
