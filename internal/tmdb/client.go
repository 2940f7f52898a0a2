package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/flicklet/flicklet/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("resource not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/configuration", c.config.BaseURL)
	params := c.baseParams()

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}

	return c.doRequest(ctx, endpoint, params, &result)
}

// SearchMulti searches movies, TV series and people in a single call.
// Results carry media_type from the API.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*Page, error) {
	return c.search(ctx, "multi", query, page)
}

// SearchMovies searches for movies by query.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*Page, error) {
	return c.search(ctx, MediaTypeMovie, query, page)
}

// SearchTV searches for TV series by query.
func (c *Client) SearchTV(ctx context.Context, query string, page int) (*Page, error) {
	return c.search(ctx, MediaTypeTV, query, page)
}

// SearchPeople searches for people by query.
func (c *Client) SearchPeople(ctx context.Context, query string, page int) (*Page, error) {
	return c.search(ctx, MediaTypePerson, query, page)
}

func (c *Client) search(ctx context.Context, kind, query string, page int) (*Page, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("%s/search/%s", c.config.BaseURL, kind)
	params := c.baseParams()
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	var result Page
	if err := c.doRequest(ctx, endpoint, params, &result); err != nil {
		return nil, err
	}

	// Type-scoped endpoints omit media_type; stamp it so downstream
	// mapping sees a uniform tagged shape.
	if kind != "multi" {
		stampMediaType(result.Results, kind)
	}

	c.logger.Debug().
		Str("kind", kind).
		Str("query", query).
		Int("page", page).
		Int("results", len(result.Results)).
		Msg("Search completed")

	return &result, nil
}

// Similar fetches titles similar to the given movie or TV entity.
func (c *Client) Similar(ctx context.Context, mediaType string, id, page int) (*Page, error) {
	return c.related(ctx, mediaType, id, page, "similar")
}

// Recommendations fetches recommended titles for the given movie or TV entity.
func (c *Client) Recommendations(ctx context.Context, mediaType string, id, page int) (*Page, error) {
	return c.related(ctx, mediaType, id, page, "recommendations")
}

func (c *Client) related(ctx context.Context, mediaType string, id, page int, kind string) (*Page, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if mediaType != MediaTypeMovie && mediaType != MediaTypeTV {
		return nil, fmt.Errorf("%w: no %s endpoint for media type %q", ErrAPIError, kind, mediaType)
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("%s/%s/%d/%s", c.config.BaseURL, mediaType, id, kind)
	params := c.baseParams()
	params.Set("page", strconv.Itoa(page))

	var result Page
	if err := c.doRequest(ctx, endpoint, params, &result); err != nil {
		return nil, err
	}

	stampMediaType(result.Results, mediaType)

	c.logger.Debug().
		Str("kind", kind).
		Str("mediaType", mediaType).
		Int("id", id).
		Int("results", len(result.Results)).
		Msg("Related fetch completed")

	return &result, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if c.config.Language != "" {
		params.Set("language", c.config.Language)
	}
	if c.config.Region != "" {
		params.Set("region", c.config.Region)
	}
	return params
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancellation is routine (a newer search superseded this one);
		// don't log it as a failure.
		if ctx.Err() == nil {
			c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		}
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func stampMediaType(results []Result, mediaType string) {
	for i := range results {
		if results[i].MediaType == "" {
			results[i].MediaType = mediaType
		}
	}
}
