package cli

import (
	"github.com/spf13/cobra"

	"matchfeatures/internal/app"
)

var (
	datasetRoot   string
	datasetHalves string
	datasetFull   string
	datasetTeam   string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Fold feature files into halves and full-game datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.DatasetOptions{
			Root:       datasetRoot,
			HalvesPath: datasetHalves,
			FullPath:   datasetFull,
			Team:       datasetTeam,
		}
		return getApp().Dataset(cmd.Context(), opts)
	},
}

func init() {
	datasetCmd.Flags().StringVar(&datasetRoot, "root", "", "Directory searched for features_*.csv (defaults to output or GPS root)")
	datasetCmd.Flags().StringVar(&datasetHalves, "halves", "", "Path of the halves dataset")
	datasetCmd.Flags().StringVar(&datasetFull, "full", "", "Path of the full-game dataset")
	datasetCmd.Flags().StringVar(&datasetTeam, "team", "", "Club whose xPts are appended (defaults to simulation.team)")
}
