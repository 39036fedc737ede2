package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikhailRaia/shortlinks/internal/app"
	"github.com/MikhailRaia/shortlinks/internal/config"
	"github.com/MikhailRaia/shortlinks/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.NewConfig()
	logger.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing application")
	}

	if err := application.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error running application")
	}
}
