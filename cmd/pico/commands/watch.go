package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pico/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Recompile the project whenever a document changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return c.app.Watch(cmd.Context(), app.WatchOptions{ConfigPath: configPath})
		},
	}
}
