package search

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/flicklet/flicklet/internal/tmdb"
)

// Handlers provides HTTP handlers for search operations.
type Handlers struct {
	service *Service
	client  *tmdb.Client
}

// NewHandlers creates new search handlers.
func NewHandlers(service *Service, client *tmdb.Client) *Handlers {
	return &Handlers{
		service: service,
		client:  client,
	}
}

// RegisterRoutes registers the search routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Search)
	g.GET("/suggestions", h.Suggestions)
	g.GET("/status", h.GetStatus)

	// Cache management
	g.DELETE("/cache", h.ClearCache)
}

// Search runs a smart search.
// GET /api/v1/search?query=...&page=...&type=...&genre=...
func (h *Handlers) Search(c echo.Context) error {
	req := Request{
		Query: c.QueryParam("query"),
		Type:  MediaType(c.QueryParam("type")),
	}
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil {
			req.Page = p
		}
	}
	if genreStr := c.QueryParam("genre"); genreStr != "" {
		if g, err := strconv.Atoi(genreStr); err == nil {
			req.Genre = g
		}
	}

	result, err := h.service.SmartSearch(c.Request().Context(), req)
	if err != nil {
		return searchError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// Suggestions returns ranked autocomplete suggestions.
// GET /api/v1/search/suggestions?query=...&limit=...
func (h *Handlers) Suggestions(c echo.Context) error {
	query := c.QueryParam("query")

	limit := DefaultSuggestionLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	suggestions, err := h.service.Suggest(c.Request().Context(), query, limit)
	if err != nil {
		return searchError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"query":       query,
		"suggestions": suggestions,
	})
}

// GetStatus reports whether the upstream provider is configured.
// GET /api/v1/search/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"provider":   h.client.Name(),
		"configured": h.client.IsConfigured(),
		"cachedSets": h.service.cache.Len(),
	})
}

// ClearCache drops all cached search results.
// DELETE /api/v1/search/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	h.service.ClearCache()
	return c.JSON(http.StatusOK, map[string]string{"message": "search cache cleared"})
}

// searchError maps service errors onto HTTP status codes.
func searchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send back.
		return nil
	case errors.Is(err, ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	case errors.Is(err, tmdb.ErrAPIKeyMissing):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "TMDB API key is not configured")
	case errors.Is(err, tmdb.ErrRateLimited):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream rate limit exceeded")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
