package cli

import (
	"github.com/spf13/cobra"

	"matchfeatures/internal/app"
)

var lineupCmd = &cobra.Command{
	Use:   "lineup <match-dir|match-id>",
	Short: "Infer the starting lineup and substitutions from running distance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Lineup(cmd.Context(), app.LineupOptions{Match: args[0]})
	},
}
