package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/flicklet/flicklet/internal/config"
	"github.com/flicklet/flicklet/internal/search"
	"github.com/flicklet/flicklet/internal/tmdb"
)

// Server handles HTTP requests for the Flicklet API.
type Server struct {
	echo   *echo.Echo
	logger zerolog.Logger
	cfg    *config.Config

	tmdbClient    *tmdb.Client
	searchService *search.Service
}

// NewServer creates a new API server with all services wired up.
func NewServer(cfg *config.Config, tmdbClient *tmdb.Client, searchService *search.Service, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:          e,
		logger:        logger.With().Str("component", "api").Logger(),
		cfg:           cfg,
		tmdbClient:    tmdbClient,
		searchService: searchService,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start begins listening on the given address. Blocks until the server
// stops.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"version":        config.Version,
		"tmdbConfigured": s.tmdbClient.IsConfigured(),
		"time":           time.Now().UTC().Format(time.RFC3339),
	})
}
