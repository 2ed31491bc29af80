package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"photoclash/internal/config"
	"photoclash/internal/db"
	"photoclash/internal/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	filePath := flag.String("file", "phrases.csv", "path to a language,text[,mature] csv")
	migrateFirst := flag.Bool("migrate", false, "run auto-migrations before loading")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := db.Open(cfg.DatabaseURL, db.Options{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if *migrateFirst {
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
	}

	inserted, err := db.LoadPhraseFile(ctx, conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("failed to load phrases")
	}
	log.Info().Int("inserted", inserted).Str("file", *filePath).Msg("phrases loaded")
}
