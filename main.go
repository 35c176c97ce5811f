package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-uploads/app/providers"
	"github.com/km-arc/go-uploads/framework/app"
	"github.com/km-arc/go-uploads/framework/config"
)

func main() {
	cfg, err := config.Load() // reads .env when present
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if _, err := providers.NewCreateFiles(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid upload rules")
	}

	application := app.New(cfg)
	providers.Register(application)
	application.Boot()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger := application.Logger()
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
