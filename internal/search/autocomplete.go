package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/flicklet/flicklet/internal/tmdb"
)

const (
	// DefaultSuggestionLimit is the number of suggestions returned when
	// the caller does not ask for a specific count.
	DefaultSuggestionLimit = 10

	// suggestionPoolLimit caps the merged candidate pool before scoring.
	// Autocomplete fires on every keystroke; bounding the pool keeps the
	// per-call cost flat no matter how broad the prefix is.
	suggestionPoolLimit = 100
)

// Suggest produces ranked autocomplete suggestions for a partial query.
// It fans out to the combined, movie and TV search endpoints in
// parallel, merges and deduplicates the pools, and scores the survivors
// with the full relevance composite. Each endpoint is individually
// optional; the call fails only when all three do.
func (s *Service) Suggest(ctx context.Context, query string, limit int) ([]ScoredCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	normalized := Normalize(query)

	fetches := []struct {
		kind string
		fn   func(context.Context, string, int) (*tmdb.Page, error)
	}{
		{"multi", s.tmdb.SearchMulti},
		{tmdb.MediaTypeMovie, s.tmdb.SearchMovies},
		{tmdb.MediaTypeTV, s.tmdb.SearchTV},
	}

	var wg sync.WaitGroup
	results := make(chan fetchResult, len(fetches))
	for _, f := range fetches {
		wg.Add(1)
		go func(kind string, fn func(context.Context, string, int) (*tmdb.Page, error)) {
			defer wg.Done()
			page, err := fn(ctx, normalized, 1)
			results <- fetchResult{kind: kind, page: page, err: err}
		}(f.kind, f.fn)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := make(map[string]*tmdb.Page, len(fetches))
	var lastErr error
	for r := range results {
		if r.err != nil {
			lastErr = r.err
			s.logger.Warn().
				Err(r.err).
				Str("kind", r.kind).
				Str("query", query).
				Msg("Suggestion fetch failed, continuing without it")
			continue
		}
		pages[r.kind] = r.page
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("suggestion search failed: %w", lastErr)
	}

	// Merge order determines which duplicate survives: the combined
	// endpoint already carries media-type tags, so it wins over the
	// type-scoped pools.
	var groups [][]Candidate
	for _, kind := range []string{"multi", tmdb.MediaTypeMovie, tmdb.MediaTypeTV} {
		if page, ok := pages[kind]; ok {
			groups = append(groups, mapCandidates(page.Results))
		}
	}

	pool := mergeCandidates(groups...)
	pool = dropPeople(pool)
	if len(pool) > suggestionPoolLimit {
		pool = pool[:suggestionPoolLimit]
	}

	ranked := RankTop(query, pool, limit, ScoreOptions{LocaleLanguages: s.locales}, s.weights)

	s.logger.Debug().
		Str("query", query).
		Int("pool", len(pool)).
		Int("results", len(ranked)).
		Msg("Suggestions ranked")

	return ranked, nil
}

func dropPeople(candidates []Candidate) []Candidate {
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.MediaType == MediaTypePerson {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}
