package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/seanmccall/pokerclock/go/internal/push"
	"github.com/seanmccall/pokerclock/go/internal/room"
	"github.com/seanmccall/pokerclock/go/internal/structure"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	setupLogging()

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	catalog := structure.NewCatalog()
	if cfg.StructuresFile != "" {
		if err := catalog.LoadFile(cfg.StructuresFile); err != nil {
			log.Fatal().Err(err).Str("path", cfg.StructuresFile).Msg("failed to load structures file")
		}
	}

	var pusher push.Sender = push.NopSender{}
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pusher = push.NewWebPushSender(cfg.Push.Subscriber, cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
	} else {
		log.Warn().Msg("VAPID keys not configured, push notifications disabled")
	}

	registry := room.NewRegistry(catalog, pusher, clockwork.NewRealClock())
	if err := registry.RestoreSnapshot(cfg.DataDir); err != nil {
		log.Error().Err(err).Str("dir", cfg.DataDir).Msg("failed to restore tournament snapshot")
	}

	srv := setupServer(cfg, registry)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	if err := registry.SaveSnapshot(cfg.DataDir); err != nil {
		log.Error().Err(err).Str("dir", cfg.DataDir).Msg("failed to save tournament snapshot")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	registry.Close()
	log.Info().Msg("shutdown complete")
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if getEnv("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
