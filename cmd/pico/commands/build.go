package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/pico/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Compile the project once and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return c.app.Build(cmd.Context(), app.BuildOptions{ConfigPath: configPath})
		},
	}
}
