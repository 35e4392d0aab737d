package cli

import (
	"github.com/spf13/cobra"

	"matchfeatures/internal/app"
)

var (
	exportPNGPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export <match-dir|match-id|features.csv>",
	Short: "Render a match's zone distances and xG as a PNG chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Match:     args[0],
			PNGPath:   exportPNGPath,
			MaxPoints: exportMaxPoints,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart (defaults next to the features file)")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum intervals to plot (defaults to config)")
}
