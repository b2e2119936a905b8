package cmd

import (
	"github.com/spf13/cobra"
	"video-tracker/config"
)

func Root(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "video-tracker",
		Short: "video watch progress tracking and reporting",
	}
	rootCmd.AddCommand(serve(cfg), migrate(cfg))
	return rootCmd
}
