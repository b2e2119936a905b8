package cmd

import (
	"github.com/spf13/cobra"
	"video-tracker/config"
	"video-tracker/server"
)

func serve(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and queue consumers",
		Run: func(cmd *cobra.Command, args []string) {
			server.RunHttp(cfg)
		},
	}
}
