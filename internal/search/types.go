// Package search implements the Flicklet search relevance and ranking
// engine: query normalization, tiered title matching, multi-signal
// scoring, anchor-based expansion and result caching over the TMDB API.
package search

import "time"

// MediaType identifies the kind of entity a candidate represents.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeTV     MediaType = "tv"
	MediaTypePerson MediaType = "person"
	// MediaTypeAll is the combined movies+TV mode. People entries are
	// dropped from final rankings in this mode.
	MediaTypeAll MediaType = "all"
)

// Candidate is the normalized representation of one searchable entity,
// regardless of which upstream endpoint produced it. Identity is the
// pair (MediaType, ID): numeric ids are not unique across movie, TV and
// person namespaces.
type Candidate struct {
	ID               int       `json:"id"`
	MediaType        MediaType `json:"mediaType"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"originalTitle,omitempty"`
	Year             int       `json:"year,omitempty"` // 0 = unknown
	PosterPath       string    `json:"posterPath,omitempty"`
	Popularity       float64   `json:"popularity"`
	VoteAverage      float64   `json:"voteAverage,omitempty"`
	VoteCount        int       `json:"voteCount,omitempty"`
	Overview         string    `json:"overview,omitempty"`
	GenreIDs         []int     `json:"genreIds,omitempty"`
	OriginalLanguage string    `json:"originalLanguage,omitempty"`
}

// Key returns the dedup identity for the candidate.
func (c *Candidate) Key() ItemKey {
	return ItemKey{MediaType: c.MediaType, ID: c.ID}
}

// ItemKey is the (mediaType, id) identity pair used for deduplication.
type ItemKey struct {
	MediaType MediaType
	ID        int
}

// ScoredCandidate is a Candidate plus its final relevance score and the
// title-match signal that produced it. Created fresh per search call,
// never persisted.
type ScoredCandidate struct {
	Candidate
	Score  float64 `json:"score"`
	Signal Signal  `json:"-"`
}

// Request describes one smart-search call.
type Request struct {
	Query string
	Page  int
	// Type filters results by media type. MediaTypeAll (or empty)
	// searches movies and TV combined.
	Type MediaType
	// Genre is an optional TMDB genre id constraint used as a ranking
	// hint. Zero means no constraint.
	Genre int
}

// Result is the ordered, paginated outcome of a smart search.
type Result struct {
	Query      string            `json:"query"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Items      []ScoredCandidate `json:"items"`
}

// EmptyExpansion is the fallback value substituted when an anchor's
// similar/recommendations fetches fail. Expansion is optional
// enrichment; its failure never fails the overall search.
var EmptyExpansion = []Candidate{}

// ScoreOptions carries the per-call context the scorer needs.
type ScoreOptions struct {
	// PreferredType grants the type-preference bonus when it matches a
	// candidate's media type. Empty or MediaTypeAll disables the bonus.
	PreferredType MediaType

	// LocaleLanguages are the caller's locale language prefixes
	// (e.g. "en", "en-US"). A candidate whose original language shares
	// a prefix earns the language bonus.
	LocaleLanguages []string

	// Now is the reference time for recency decay. If zero, time.Now()
	// is used.
	Now time.Time
}

// GetNow returns the reference time for recency calculations.
func (o *ScoreOptions) GetNow() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}
