package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/flicklet/flicklet/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.TMDBConfig{
		APIKey:   "test-key",
		BaseURL:  serverURL,
		Language: "en-US",
		Timeout:  5,
	}, zerolog.Nop())
}

func TestSearchMulti(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/multi" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "z nation" {
			t.Errorf("query param = %q, want %q", got, "z nation")
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key param = %q", got)
		}
		if got := r.URL.Query().Get("include_adult"); got != "false" {
			t.Errorf("include_adult param = %q, want false", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 61888, "media_type": "tv", "name": "Z Nation", "first_air_date": "2014-09-12", "popularity": 35.2},
				{"id": 72190, "media_type": "movie", "title": "World War Z", "release_date": "2013-06-20", "popularity": 90.1}
			],
			"total_pages": 1,
			"total_results": 2
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.SearchMulti(context.Background(), "z nation", 1)
	if err != nil {
		t.Fatalf("SearchMulti failed: %v", err)
	}

	if len(page.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page.Results))
	}
	if page.Results[0].MediaType != MediaTypeTV {
		t.Errorf("media type = %q, want tv", page.Results[0].MediaType)
	}
	if page.Results[0].Name != "Z Nation" {
		t.Errorf("name = %q", page.Results[0].Name)
	}
}

func TestSearchMoviesStampsMediaType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		// The type-scoped endpoint does not include media_type.
		w.Write([]byte(`{
			"page": 1,
			"results": [{"id": 27205, "title": "Inception", "release_date": "2010-07-16"}],
			"total_pages": 1,
			"total_results": 1
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.SearchMovies(context.Background(), "inception", 1)
	if err != nil {
		t.Fatalf("SearchMovies failed: %v", err)
	}

	if len(page.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(page.Results))
	}
	if page.Results[0].MediaType != MediaTypeMovie {
		t.Errorf("media type = %q, want movie (stamped)", page.Results[0].MediaType)
	}
}

func TestSearchPageFloor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("page param = %q, want 1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page": 1, "results": [], "total_pages": 0, "total_results": 0}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.SearchTV(context.Background(), "anything", 0); err != nil {
		t.Fatalf("SearchTV failed: %v", err)
	}
}

func TestSimilar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/61888/similar" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1,
			"results": [{"id": 1402, "name": "The Walking Dead", "first_air_date": "2010-10-31"}],
			"total_pages": 1,
			"total_results": 1
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	page, err := client.Similar(context.Background(), MediaTypeTV, 61888, 1)
	if err != nil {
		t.Fatalf("Similar failed: %v", err)
	}
	if page.Results[0].MediaType != MediaTypeTV {
		t.Errorf("media type = %q, want tv (stamped)", page.Results[0].MediaType)
	}
}

func TestRecommendationsRejectsPerson(t *testing.T) {
	client := newTestClient("http://example.invalid")
	_, err := client.Recommendations(context.Background(), MediaTypePerson, 500, 1)
	if !errors.Is(err, ErrAPIError) {
		t.Fatalf("expected ErrAPIError, got %v", err)
	}
}

func TestSearchWithoutAPIKey(t *testing.T) {
	client := NewClient(config.TMDBConfig{BaseURL: "http://example.invalid"}, zerolog.Nop())

	if client.IsConfigured() {
		t.Fatal("client should not report configured without a key")
	}
	if _, err := client.SearchMulti(context.Background(), "query", 1); !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
	if _, err := client.Similar(context.Background(), MediaTypeMovie, 1, 1); !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected error
	}{
		{name: "not found", status: http.StatusNotFound, expected: ErrNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, expected: ErrAPIError},
		{name: "rate limited", status: http.StatusTooManyRequests, expected: ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, expected: ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"status_code": 1, "status_message": "error"}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.SearchMovies(context.Background(), "query", 1)
			if !errors.Is(err, tt.expected) {
				t.Errorf("status %d mapped to %v, want %v", tt.status, err, tt.expected)
			}
		})
	}
}

func TestGetImageURL(t *testing.T) {
	client := NewClient(config.TMDBConfig{
		APIKey:       "k",
		ImageBaseURL: "https://image.tmdb.org/t/p",
	}, zerolog.Nop())

	got := client.GetImageURL("/poster.jpg", "w500")
	expected := "https://image.tmdb.org/t/p/w500/poster.jpg"
	if got != expected {
		t.Errorf("GetImageURL = %q, want %q", got, expected)
	}

	if got := client.GetImageURL("", "w500"); got != "" {
		t.Errorf("empty path should yield empty URL, got %q", got)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.SearchMulti(ctx, "query", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
