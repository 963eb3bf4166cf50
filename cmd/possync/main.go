package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newApp(logger).Run(os.Args); err != nil {
		logger.Fatal().Err(err).Msg("possync failed")
	}
}
