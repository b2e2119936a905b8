package main

import (
	"github.com/rs/zerolog/log"
	"os"
	"video-tracker/cmd"
	"video-tracker/config"
)

func main() {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("resolve working directory")
	}
	cfg, err := config.Load(wd)
	if err != nil {
		log.Fatal().Err(err).Str("dir", wd).Msg("load config")
	}

	if err := cmd.Root(cfg).Execute(); err != nil {
		log.Fatal().Err(err).Send()
	}
}
