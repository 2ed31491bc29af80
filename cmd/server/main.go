package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoclash/internal/config"
	"photoclash/internal/db"
	"photoclash/internal/game"
	"photoclash/internal/logger"
	"photoclash/internal/redis"
	"photoclash/internal/server"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("photoclash server stopped")
	}
	log.Info().Msg("photoclash server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	group, ctx := errgroup.WithContext(ctx)

	hub := server.NewHub(cfg.EventBuffer)
	publishers := game.Publishers{hub}
	phrases := game.NewPhraseGenerator(cfg.DefaultLanguage)

	var (
		repo    game.Repository = game.NewMemoryStore()
		history server.EventHistory
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL, db.Options{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime(),
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime(),
		})
		if err != nil {
			return err
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(conn); err != nil {
				return err
			}
		}
		added, err := db.LoadPhrasePools(ctx, conn, phrases)
		if err != nil {
			return err
		}
		log.Info().Int("phrases", added).Msg("phrase pools loaded")

		repo = db.NewRepository(conn)
		eventLog := db.NewEventLog(conn, cfg.EventBuffer)
		publishers = append(publishers, eventLog)
		history = eventLog
		group.Go(func() error { return eventLog.Run(ctx) })
	} else {
		log.Warn().Msg("DATABASE_URL is not set; rooms are kept in memory")
	}

	if cfg.RedisAddr != "" {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		redisPub := redis.NewPublisher(client, cfg.EventBuffer)
		publishers = append(publishers, redisPub)
		group.Go(func() error { return redisPub.Run(ctx) })
	}

	svc := game.NewService(repo, publishers, game.Options{
		MaxPlayers:      cfg.MaxPlayersPerRoom,
		CodeLength:      cfg.RoomCodeLength,
		DefaultLanguage: cfg.DefaultLanguage,
		TickInterval:    cfg.TimerTick(),
		Phrases:         phrases,
	})
	defer svc.Close()

	restored, err := svc.RestoreTimers(ctx)
	if err != nil {
		return err
	}
	if restored > 0 {
		log.Info().Int("rooms", restored).Msg("round timers restored")
	}

	srv := server.New(svc, hub, publishers, cfg)
	if history != nil {
		srv.SetHistory(history)
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("photoclash server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
