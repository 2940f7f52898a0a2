package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicklet/flicklet/internal/config"
	"github.com/flicklet/flicklet/internal/tmdb"
)

// fakeTMDB implements TMDBClient with per-endpoint function hooks. Nil
// hooks return an empty page. Every call is recorded as "endpoint:arg"
// so tests can assert on dispatch behavior.
type fakeTMDB struct {
	mu    sync.Mutex
	calls []string

	multiFn   func(query string, page int) (*tmdb.Page, error)
	moviesFn  func(query string, page int) (*tmdb.Page, error)
	tvFn      func(query string, page int) (*tmdb.Page, error)
	peopleFn  func(query string, page int) (*tmdb.Page, error)
	similarFn func(mediaType string, id, page int) (*tmdb.Page, error)
	recsFn    func(mediaType string, id, page int) (*tmdb.Page, error)
}

func (f *fakeTMDB) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTMDB) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func emptyPage() *tmdb.Page {
	return &tmdb.Page{Page: 1, TotalPages: 1}
}

func (f *fakeTMDB) SearchMulti(_ context.Context, query string, page int) (*tmdb.Page, error) {
	f.record("multi:" + query)
	if f.multiFn == nil {
		return emptyPage(), nil
	}
	return f.multiFn(query, page)
}

func (f *fakeTMDB) SearchMovies(_ context.Context, query string, page int) (*tmdb.Page, error) {
	f.record("movies:" + query)
	if f.moviesFn == nil {
		return emptyPage(), nil
	}
	return f.moviesFn(query, page)
}

func (f *fakeTMDB) SearchTV(_ context.Context, query string, page int) (*tmdb.Page, error) {
	f.record("tv:" + query)
	if f.tvFn == nil {
		return emptyPage(), nil
	}
	return f.tvFn(query, page)
}

func (f *fakeTMDB) SearchPeople(_ context.Context, query string, page int) (*tmdb.Page, error) {
	f.record("people:" + query)
	if f.peopleFn == nil {
		return emptyPage(), nil
	}
	return f.peopleFn(query, page)
}

func (f *fakeTMDB) Similar(_ context.Context, mediaType string, id, page int) (*tmdb.Page, error) {
	f.record("similar:" + mediaType)
	if f.similarFn == nil {
		return emptyPage(), nil
	}
	return f.similarFn(mediaType, id, page)
}

func (f *fakeTMDB) Recommendations(_ context.Context, mediaType string, id, page int) (*tmdb.Page, error) {
	f.record("recs:" + mediaType)
	if f.recsFn == nil {
		return emptyPage(), nil
	}
	return f.recsFn(mediaType, id, page)
}

func movieResult(id int, title, date string, popularity float64) tmdb.Result {
	return tmdb.Result{
		ID: id, MediaType: tmdb.MediaTypeMovie,
		Title: title, ReleaseDate: date, Popularity: popularity,
	}
}

func tvResult(id int, name, date string, popularity float64) tmdb.Result {
	return tmdb.Result{
		ID: id, MediaType: tmdb.MediaTypeTV,
		Name: name, FirstAirDate: date, Popularity: popularity,
	}
}

func personResult(id int, name string) tmdb.Result {
	return tmdb.Result{ID: id, MediaType: tmdb.MediaTypePerson, Name: name}
}

func page(results ...tmdb.Result) *tmdb.Page {
	return &tmdb.Page{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)}
}

func newTestService(fake *fakeTMDB) *Service {
	return NewService(fake, NewCache(time.Minute), config.SearchConfig{}, zerolog.Nop())
}

func TestSmartSearchEmptyQuery(t *testing.T) {
	svc := newTestService(&fakeTMDB{})
	_, err := svc.SmartSearch(context.Background(), Request{Query: "   "})
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSmartSearchMergesAndDedups(t *testing.T) {
	fake := &fakeTMDB{
		moviesFn: func(string, int) (*tmdb.Page, error) {
			return page(movieResult(10, "Z Nation Zero", "2015-01-01", 20)), nil
		},
		tvFn: func(string, int) (*tmdb.Page, error) {
			return page(tvResult(10, "Z Nation", "2014-09-12", 35)), nil
		},
		multiFn: func(string, int) (*tmdb.Page, error) {
			// Duplicate of the TV seed plus a person, which the combined
			// mode must drop.
			return page(
				tvResult(10, "Z Nation", "2014-09-12", 35),
				movieResult(77, "World War Z", "2013-06-20", 90),
				personResult(5, "Zachary Quinto"),
			), nil
		},
	}
	svc := newTestService(fake)

	result, err := svc.SmartSearch(context.Background(), Request{Query: "z nation"})
	require.NoError(t, err)

	ids := make(map[ItemKey]int)
	for _, item := range result.Items {
		ids[item.Key()]++
		assert.NotEqual(t, MediaTypePerson, item.MediaType)
	}
	for key, count := range ids {
		assert.Equal(t, 1, count, "duplicate entry for %v", key)
	}

	// Same numeric id under different media types stays distinct.
	assert.Contains(t, ids, ItemKey{MediaType: MediaTypeTV, ID: 10})
	assert.Contains(t, ids, ItemKey{MediaType: MediaTypeMovie, ID: 10})

	// The exact-match series ranks first.
	require.NotEmpty(t, result.Items)
	assert.Equal(t, "Z Nation", result.Items[0].Title)
}

func TestSmartSearchExpansionFailureNonFatal(t *testing.T) {
	upstreamErr := errors.New("upstream exploded")
	fake := &fakeTMDB{
		tvFn: func(string, int) (*tmdb.Page, error) {
			return page(tvResult(1, "Dark", "2017-12-01", 60)), nil
		},
		similarFn: func(string, int, int) (*tmdb.Page, error) {
			return nil, upstreamErr
		},
		recsFn: func(string, int, int) (*tmdb.Page, error) {
			return nil, upstreamErr
		},
	}
	svc := newTestService(fake)

	result, err := svc.SmartSearch(context.Background(), Request{Query: "dark"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, "Dark", result.Items[0].Title)

	// The anchor was strong enough that expansion was attempted.
	assert.Equal(t, 1, fake.callCount("similar:"))
	assert.Equal(t, 1, fake.callCount("recs:"))
}

func TestSmartSearchNoAnchorSkipsExpansion(t *testing.T) {
	fake := &fakeTMDB{
		tvFn: func(string, int) (*tmdb.Page, error) {
			return page(tvResult(1, "Completely Unrelated Show", "2020-01-01", 10)), nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.SmartSearch(context.Background(), Request{Query: "xyzzy"})
	require.NoError(t, err)

	assert.Zero(t, fake.callCount("similar:"))
	assert.Zero(t, fake.callCount("recs:"))
}

func TestSmartSearchBreadthFailurePropagates(t *testing.T) {
	upstreamErr := errors.New("multi down")
	fake := &fakeTMDB{
		multiFn: func(string, int) (*tmdb.Page, error) {
			return nil, upstreamErr
		},
	}
	svc := newTestService(fake)

	_, err := svc.SmartSearch(context.Background(), Request{Query: "anything"})
	require.ErrorIs(t, err, upstreamErr)
}

func TestSmartSearchSeedFallbackToTypedQuery(t *testing.T) {
	attemptErr := errors.New("no results for spaced form")
	fake := &fakeTMDB{
		moviesFn: func(query string, _ int) (*tmdb.Page, error) {
			if query == "z nation" {
				return nil, attemptErr
			}
			return page(movieResult(2, "Z-Nation Origins", "2016-01-01", 5)), nil
		},
	}
	svc := newTestService(fake)

	_, err := svc.SmartSearch(context.Background(), Request{Query: "z-nation"})
	require.NoError(t, err)

	// Spaced form first, then the query as typed.
	assert.Equal(t, 2, fake.callCount("movies:"))
	assert.Contains(t, fake.calls, "movies:z nation")
	assert.Contains(t, fake.calls, "movies:z-nation")
}

func TestSmartSearchSeedFailureAfterFallbackPropagates(t *testing.T) {
	seedErr := errors.New("tv search down")
	fake := &fakeTMDB{
		tvFn: func(string, int) (*tmdb.Page, error) {
			return nil, seedErr
		},
	}
	svc := newTestService(fake)

	_, err := svc.SmartSearch(context.Background(), Request{Query: "z-nation"})
	require.ErrorIs(t, err, seedErr)
}

func TestSmartSearchCachesResults(t *testing.T) {
	fake := &fakeTMDB{
		multiFn: func(string, int) (*tmdb.Page, error) {
			return page(movieResult(1, "Inception", "2010-07-16", 80)), nil
		},
	}
	svc := newTestService(fake)

	first, err := svc.SmartSearch(context.Background(), Request{Query: "inception"})
	require.NoError(t, err)
	callsAfterFirst := len(fake.calls)

	second, err := svc.SmartSearch(context.Background(), Request{Query: "inception"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, callsAfterFirst, len(fake.calls), "cache hit must not call upstream")

	// A different page is a different cache entry.
	_, err = svc.SmartSearch(context.Background(), Request{Query: "inception", Page: 2})
	require.NoError(t, err)
	assert.Greater(t, len(fake.calls), callsAfterFirst)
}

func TestSmartSearchPersonPath(t *testing.T) {
	fake := &fakeTMDB{
		peopleFn: func(string, int) (*tmdb.Page, error) {
			return page(personResult(500, "Tom Hanks"), personResult(501, "Colin Hanks")), nil
		},
	}
	svc := newTestService(fake)

	result, err := svc.SmartSearch(context.Background(), Request{Query: "hanks", Type: MediaTypePerson})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	// Upstream order preserved, no movie/tv/expansion traffic.
	assert.Equal(t, "Tom Hanks", result.Items[0].Title)
	assert.Zero(t, fake.callCount("movies:"))
	assert.Zero(t, fake.callCount("tv:"))
	assert.Zero(t, fake.callCount("multi:"))
}

func TestSmartSearchPersonPathErrorPropagates(t *testing.T) {
	peopleErr := errors.New("people search down")
	fake := &fakeTMDB{
		peopleFn: func(string, int) (*tmdb.Page, error) {
			return nil, peopleErr
		},
	}
	svc := newTestService(fake)

	_, err := svc.SmartSearch(context.Background(), Request{Query: "hanks", Type: MediaTypePerson})
	require.ErrorIs(t, err, peopleErr)
}

func TestSmartSearchTypeFilter(t *testing.T) {
	fake := &fakeTMDB{
		multiFn: func(string, int) (*tmdb.Page, error) {
			return page(
				movieResult(1, "Dune", "2021-10-22", 100),
				tvResult(2, "Dune: Prophecy", "2024-11-17", 50),
			), nil
		},
	}
	svc := newTestService(fake)

	result, err := svc.SmartSearch(context.Background(), Request{Query: "dune", Type: MediaTypeMovie})
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)
	for _, item := range result.Items {
		assert.Equal(t, MediaTypeMovie, item.MediaType)
	}
}

func TestSmartSearchGenreHintBoostsRanking(t *testing.T) {
	// Two otherwise comparable contains-tier results; the one carrying
	// the requested genre id must rank first.
	fake := &fakeTMDB{
		multiFn: func(string, int) (*tmdb.Page, error) {
			horror := movieResult(1, "Night Story", "2020-01-01", 10)
			horror.GenreIDs = []int{27}
			drama := movieResult(2, "Night Story", "2020-01-01", 10)
			drama.GenreIDs = []int{18}
			return page(drama, horror), nil
		},
	}
	svc := newTestService(fake)

	result, err := svc.SmartSearch(context.Background(), Request{Query: "night story", Genre: 27})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 1, result.Items[0].ID)
}

func TestSmartSearchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeTMDB{
		tvFn: func(string, int) (*tmdb.Page, error) {
			return nil, ctx.Err()
		},
	}
	svc := newTestService(fake)

	_, err := svc.SmartSearch(ctx, Request{Query: "inception"})
	require.ErrorIs(t, err, context.Canceled)

	// The as-typed fallback is skipped once the context is dead.
	assert.Equal(t, 1, fake.callCount("tv:"))
}
