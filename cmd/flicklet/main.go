package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flicklet/flicklet/internal/api"
	"github.com/flicklet/flicklet/internal/config"
	"github.com/flicklet/flicklet/internal/logger"
	"github.com/flicklet/flicklet/internal/search"
	"github.com/flicklet/flicklet/internal/tmdb"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("Flicklet starting")

	tmdbClient := tmdb.NewClient(cfg.TMDB, log.Logger)
	if !tmdbClient.IsConfigured() {
		log.Warn().Msg("TMDB API key is not configured; search requests will fail until one is set")
	}

	cache := search.NewCache(time.Duration(cfg.Search.CacheTTLMinutes) * time.Minute)
	searchService := search.NewService(tmdbClient, cache, cfg.Search, log.Logger)

	server := api.NewServer(cfg, tmdbClient, searchService, log.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Address())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Flicklet stopped")
}
