package cmd

import (
	"context"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"video-tracker/config"
	"video-tracker/repository"
)

func migrate(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.NewRepo(config.DB)
			if err != nil {
				return err
			}
			if err := repo.Migrate(context.Background()); err != nil {
				return err
			}
			log.Info().Msg("database migrated")
			return nil
		},
	}
}
