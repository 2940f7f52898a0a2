package search

import (
	"context"

	"github.com/flicklet/flicklet/internal/tmdb"
)

// TMDBClient defines the upstream search operations the orchestrator
// depends on. All calls honor context cancellation.
type TMDBClient interface {
	SearchMulti(ctx context.Context, query string, page int) (*tmdb.Page, error)
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.Page, error)
	SearchTV(ctx context.Context, query string, page int) (*tmdb.Page, error)
	SearchPeople(ctx context.Context, query string, page int) (*tmdb.Page, error)
	Similar(ctx context.Context, mediaType string, id, page int) (*tmdb.Page, error)
	Recommendations(ctx context.Context, mediaType string, id, page int) (*tmdb.Page, error)
}
