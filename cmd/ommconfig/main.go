package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/omm/internal/config"
	"github.com/danmuck/omm/internal/logging"
)

func main() {
	logging.ConfigureRuntime()

	kind := flag.String("kind", "toml", "template format: toml|yaml")
	output := flag.String("output", "", "output path for config template (default codec.<kind>)")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "codec.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadCodecConfig(*input)
		if err != nil {
			log.Fatal().Err(err).Str("path", *input).Msg("invalid config")
		}
		if _, err := cfg.Options(); err != nil {
			log.Fatal().Err(err).Str("path", *input).Msg("config options")
		}
		log.Info().Str("path", *input).Str("version", cfg.Version().String()).Msg("validated codec config")
		return
	}

	target := *output
	if target == "" {
		target = "codec." + *kind
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("write template")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote codec config template")
}
