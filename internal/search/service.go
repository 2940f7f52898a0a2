package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/flicklet/flicklet/internal/config"
	"github.com/flicklet/flicklet/internal/tmdb"
)

var ErrEmptyQuery = errors.New("search query is empty")

// Secondary ranking composite applied to the merged pool: title match
// dominates, with small additive boosts for genre-hint match, overview
// keyword hints and popularity.
const (
	mergedTitleWeight = 0.7
	mergedBoostCap    = 0.25
)

// Service orchestrates multi-endpoint searches against TMDB: seed
// fetches, anchor selection and expansion, breadth fetch, merge,
// scoring and ranking. Stateless across calls except for the injected
// result cache.
type Service struct {
	tmdb    TMDBClient
	cache   *Cache
	weights Weights
	locales []string
	logger  zerolog.Logger
}

// NewService creates a new search service. The cache is injected so
// tests can substitute a fresh instance per test.
func NewService(client TMDBClient, cache *Cache, cfg config.SearchConfig, logger zerolog.Logger) *Service {
	weights := DefaultWeights()
	if cfg.AnchorThreshold > 0 {
		weights.AnchorThreshold = cfg.AnchorThreshold
	}

	locales := cfg.Locales
	if len(locales) == 0 {
		locales = []string{"en"}
	}

	return &Service{
		tmdb:    client,
		cache:   cache,
		weights: weights,
		locales: locales,
		logger:  logger.With().Str("component", "search").Logger(),
	}
}

// SetWeights replaces the scoring weights (for tuning and tests).
func (s *Service) SetWeights(w Weights) {
	s.weights = w
}

// ClearCache drops all cached result pages.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info().Msg("Search cache cleared")
}

// SmartSearch runs the full multi-endpoint search for a query and
// returns a ranked, paginated result list.
//
// Failure semantics: anchor expansion failures are swallowed (the
// feature degrades to "no expansion"), seed fetches fall back once to
// the as-typed query form, and only failures that make the result set
// meaningless (the breadth fetch for the requested page, or the person
// search on the person-only path) propagate to the caller.
func (s *Service) SmartSearch(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Type == "" {
		req.Type = MediaTypeAll
	}

	key := CacheKey(Normalize(query), req.Page, req.Genre, req.Type)
	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug().Str("query", query).Int("page", req.Page).Msg("Search cache hit")
		return cached, nil
	}

	// People-only fast path: one call, no anchoring or expansion.
	if req.Type == MediaTypePerson {
		return s.searchPeople(ctx, query, req, key)
	}

	forms := CanonicalForms(query)

	seeds, err := s.fetchSeeds(ctx, query)
	if err != nil {
		return nil, err
	}

	anchor := s.selectAnchor(forms, seeds)

	expansion := EmptyExpansion
	if anchor != nil {
		expansion = s.fetchExpansion(ctx, anchor)
	}

	// The breadth fetch is the only source of the literal requested
	// page, so its failure propagates.
	breadth, err := s.tmdb.SearchMulti(ctx, Normalize(query), req.Page)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var anchorGroup []Candidate
	if anchor != nil {
		anchorGroup = []Candidate{*anchor}
	}
	merged := mergeCandidates(anchorGroup, expansion, seeds, mapCandidates(breadth.Results))

	scored := s.scoreMerged(query, forms, merged, req)
	SortRanked(query, scored)
	scored = filterByType(scored, req.Type)

	result := &Result{
		Query:      query,
		Page:       req.Page,
		TotalPages: breadth.TotalPages,
		Items:      scored,
	}
	s.cache.Set(key, result)

	s.logger.Info().
		Str("query", query).
		Int("page", req.Page).
		Bool("anchored", anchor != nil).
		Int("seeds", len(seeds)).
		Int("expansion", len(expansion)).
		Int("results", len(scored)).
		Msg("Smart search completed")

	return result, nil
}

func (s *Service) searchPeople(ctx context.Context, query string, req Request, key string) (*Result, error) {
	page, err := s.tmdb.SearchPeople(ctx, Normalize(query), req.Page)
	if err != nil {
		return nil, fmt.Errorf("person search failed: %w", err)
	}

	candidates := mapCandidates(page.Results)
	opts := s.scoreOptions(req)

	// Upstream person relevance order is kept; scores are attached for
	// the presentation layer only.
	items := make([]ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		score, sig := ComputeScore(query, &candidates[i], opts, s.weights)
		items = append(items, ScoredCandidate{Candidate: candidates[i], Score: score, Signal: sig})
	}

	result := &Result{
		Query:      query,
		Page:       req.Page,
		TotalPages: page.TotalPages,
		Items:      items,
	}
	s.cache.Set(key, result)

	s.logger.Info().
		Str("query", query).
		Int("page", req.Page).
		Int("results", len(items)).
		Msg("Person search completed")

	return result, nil
}

// seedAttempts returns the ordered query forms the seed fetches try:
// the spaced canonical form first, then the query as typed. Trying each
// in sequence and stopping at first success keeps the retry policy
// inspectable, instead of burying it in nested error handling.
func seedAttempts(query string) []string {
	spaced := SpacedForm(query)
	if spaced == "" || spaced == query {
		return []string{query}
	}
	return []string{spaced, query}
}

// searchWithAttempts tries each query form in order and returns the
// first successful page. Cancellation stops the sequence immediately.
func searchWithAttempts(ctx context.Context, fn func(context.Context, string, int) (*tmdb.Page, error), attempts []string, page int) (*tmdb.Page, error) {
	var lastErr error
	for _, q := range attempts {
		result, err := fn(ctx, q, page)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

type fetchResult struct {
	kind string
	page *tmdb.Page
	err  error
}

// fetchSeeds issues the parallel first-page TV and movie searches. A
// failure of either after the as-typed fallback propagates: the seeds
// are a required source of anchor candidates.
func (s *Service) fetchSeeds(ctx context.Context, query string) ([]Candidate, error) {
	attempts := seedAttempts(query)

	var wg sync.WaitGroup
	results := make(chan fetchResult, 2)

	fetches := []struct {
		kind string
		fn   func(context.Context, string, int) (*tmdb.Page, error)
	}{
		{tmdb.MediaTypeTV, s.tmdb.SearchTV},
		{tmdb.MediaTypeMovie, s.tmdb.SearchMovies},
	}
	for _, f := range fetches {
		wg.Add(1)
		go func(kind string, fn func(context.Context, string, int) (*tmdb.Page, error)) {
			defer wg.Done()
			page, err := searchWithAttempts(ctx, fn, attempts, 1)
			results <- fetchResult{kind: kind, page: page, err: err}
		}(f.kind, f.fn)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := make(map[string]*tmdb.Page, 2)
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("%s seed search failed: %w", r.kind, r.err)
		}
		pages[r.kind] = r.page
	}

	seeds := mapCandidates(pages[tmdb.MediaTypeTV].Results)
	seeds = append(seeds, mapCandidates(pages[tmdb.MediaTypeMovie].Results)...)
	return seeds, nil
}

// selectAnchor picks the seed result whose title matches the query most
// strongly, but only if it clears the confidence threshold. No anchor
// means anchor-derived expansion is skipped.
func (s *Service) selectAnchor(forms []string, seeds []Candidate) *Candidate {
	var best *Candidate
	bestStrength := 0.0

	for i := range seeds {
		c := &seeds[i]
		if c.MediaType != MediaTypeMovie && c.MediaType != MediaTypeTV {
			continue
		}
		if sig := bestSignal(forms, c); sig.Strength > bestStrength {
			bestStrength = sig.Strength
			best = c
		}
	}

	if best == nil || bestStrength < s.weights.AnchorThreshold {
		return nil
	}

	s.logger.Debug().
		Str("title", best.Title).
		Str("mediaType", string(best.MediaType)).
		Float64("strength", bestStrength).
		Msg("Anchor selected")

	return best
}

// fetchExpansion fetches the anchor's similar and recommended titles in
// parallel. Expansion is optional enrichment: any failure substitutes
// EmptyExpansion for that branch and is logged as a warning.
func (s *Service) fetchExpansion(ctx context.Context, anchor *Candidate) []Candidate {
	var wg sync.WaitGroup
	results := make(chan fetchResult, 2)

	fetches := []struct {
		kind string
		fn   func(context.Context, string, int, int) (*tmdb.Page, error)
	}{
		{"similar", s.tmdb.Similar},
		{"recommendations", s.tmdb.Recommendations},
	}
	for _, f := range fetches {
		wg.Add(1)
		go func(kind string, fn func(context.Context, string, int, int) (*tmdb.Page, error)) {
			defer wg.Done()
			page, err := fn(ctx, string(anchor.MediaType), anchor.ID, 1)
			results <- fetchResult{kind: kind, page: page, err: err}
		}(f.kind, f.fn)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := make(map[string]*tmdb.Page, 2)
	for r := range results {
		if r.err != nil {
			s.logger.Warn().
				Err(r.err).
				Str("kind", r.kind).
				Int("anchorId", anchor.ID).
				Msg("Anchor expansion fetch failed, continuing without it")
			continue
		}
		pages[r.kind] = r.page
	}

	expansion := EmptyExpansion
	for _, kind := range []string{"similar", "recommendations"} {
		if page, ok := pages[kind]; ok {
			expansion = append(expansion, mapCandidates(page.Results)...)
		}
	}
	return expansion
}

// mergeCandidates concatenates candidate groups in priority order and
// deduplicates by (mediaType, id), keeping the first occurrence so the
// anchor and its close relatives win placement over generic results.
func mergeCandidates(groups ...[]Candidate) []Candidate {
	seen := make(map[ItemKey]bool)
	var merged []Candidate
	for _, group := range groups {
		for _, c := range group {
			if seen[c.Key()] {
				continue
			}
			seen[c.Key()] = true
			merged = append(merged, c)
		}
	}
	return merged
}

// bestSignal returns the strongest title signal for a candidate across
// all canonical query forms.
func bestSignal(forms []string, c *Candidate) Signal {
	best := Signal{Tier: TierNone}
	for _, form := range forms {
		sig := TitleSignal(form, c.Title, c.OriginalTitle)
		if sig.Strength > best.Strength || (sig.Strength == best.Strength && sig.Tier > best.Tier) {
			best = sig
		}
	}
	return best
}

// themeHints maps query tokens to overview keywords that signal the
// same theme, so e.g. a zombie query rewards apocalypse-flavored
// overviews even when the token itself is absent.
var themeHints = map[string][]string{
	"zombie":  {"undead", "apocalypse", "outbreak"},
	"zombies": {"undead", "apocalypse", "outbreak"},
	"vampire": {"undead", "bloodsucker"},
	"heist":   {"robbery", "thief"},
	"alien":   {"extraterrestrial", "invasion"},
	"space":   {"galaxy", "astronaut", "spacecraft"},
}

// scoreMerged applies the secondary ranking composite to the merged
// pool.
func (s *Service) scoreMerged(query string, forms []string, merged []Candidate, req Request) []ScoredCandidate {
	hints := overviewHintTerms(Tokenize(Normalize(query)))

	scored := make([]ScoredCandidate, 0, len(merged))
	for i := range merged {
		c := &merged[i]
		sig := bestSignal(forms, c)

		score := mergedTitleWeight * sig.Strength
		if req.Genre != 0 && containsGenre(c.GenreIDs, req.Genre) {
			score += mergedBoostCap
		}
		score += mergedBoostCap * overviewHintScore(c.Overview, hints)
		score += mergedBoostCap * clamp01(c.Popularity/popularityCeiling)

		scored = append(scored, ScoredCandidate{Candidate: *c, Score: score, Signal: sig})
	}
	return scored
}

// overviewHintTerms builds the hint-term set for a query: the query
// tokens themselves plus any theme synonyms.
func overviewHintTerms(queryTokens []string) map[string]bool {
	hints := make(map[string]bool, len(queryTokens))
	for _, tok := range queryTokens {
		hints[tok] = true
		for _, syn := range themeHints[tok] {
			hints[syn] = true
		}
	}
	return hints
}

// overviewHintScore is the fraction of hint terms present in the
// overview.
func overviewHintScore(overview string, hints map[string]bool) float64 {
	if len(hints) == 0 || overview == "" {
		return 0
	}
	present := make(map[string]bool)
	for _, tok := range Tokenize(Normalize(overview)) {
		if hints[tok] {
			present[tok] = true
		}
	}
	return float64(len(present)) / float64(len(hints))
}

func containsGenre(genreIDs []int, genre int) bool {
	for _, id := range genreIDs {
		if id == genre {
			return true
		}
	}
	return false
}

// filterByType applies the caller's media-type filter to the ranked
// list. The combined movies+tv mode drops people entries.
func filterByType(items []ScoredCandidate, mediaType MediaType) []ScoredCandidate {
	filtered := make([]ScoredCandidate, 0, len(items))
	for _, item := range items {
		switch mediaType {
		case MediaTypeMovie, MediaTypeTV, MediaTypePerson:
			if item.MediaType != mediaType {
				continue
			}
		default:
			if item.MediaType == MediaTypePerson {
				continue
			}
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func (s *Service) scoreOptions(req Request) ScoreOptions {
	return ScoreOptions{
		PreferredType:   req.Type,
		LocaleLanguages: s.locales,
	}
}
