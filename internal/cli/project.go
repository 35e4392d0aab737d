package cli

import (
	"github.com/spf13/cobra"

	"matchfeatures/internal/app"
)

var (
	projectPlayers []string
	projectFrom    string
	projectTo      string
	projectOutput  string
)

var projectCmd = &cobra.Command{
	Use:   "project <match-dir|match-id>",
	Short: "Write per-second player frames in pitch coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ProjectOptions{
			Match:   args[0],
			Players: projectPlayers,
			From:    projectFrom,
			To:      projectTo,
			Output:  projectOutput,
		}
		return getApp().Project(cmd.Context(), opts)
	},
}

func init() {
	projectCmd.Flags().StringSliceVar(&projectPlayers, "player", nil, "Only these player ids, e.g. CB_4 (repeatable)")
	projectCmd.Flags().StringVar(&projectFrom, "from", "", "Keep frames after this clock (HH:MM:SS, exclusive)")
	projectCmd.Flags().StringVar(&projectTo, "to", "", "Keep frames before this clock (HH:MM:SS, exclusive)")
	projectCmd.Flags().StringVar(&projectOutput, "out", "", "Output CSV (defaults to frames_<match>.csv in the match folder)")
}
