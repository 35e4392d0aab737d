package cli

import (
	"github.com/spf13/cobra"

	"matchfeatures/internal/app"
)

var (
	showCSVPath string
)

var showCmd = &cobra.Command{
	Use:   "show [match-id]",
	Short: "Display stored matches, the intervals of one match, or a features CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{CSVPath: showCSVPath}
		if len(args) == 1 {
			opts.Match = args[0]
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showCSVPath, "csv", "", "Read intervals from this features CSV instead of the database")
}
