package search

import (
	"strconv"

	"github.com/flicklet/flicklet/internal/tmdb"
)

// mapCandidates translates upstream records into Candidates. This is
// the single place "missing field" handling lives: records are tagged
// by media type, every optional field maps to its zero value, and a
// record that cannot be minimally identified (no id, or an unknown
// media type) is dropped rather than crashing the ranking pass.
func mapCandidates(results []tmdb.Result) []Candidate {
	candidates := make([]Candidate, 0, len(results))
	for i := range results {
		if c, ok := mapCandidate(&results[i]); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func mapCandidate(r *tmdb.Result) (Candidate, bool) {
	if r.ID == 0 {
		return Candidate{}, false
	}

	switch r.MediaType {
	case tmdb.MediaTypeMovie:
		return Candidate{
			ID:               r.ID,
			MediaType:        MediaTypeMovie,
			Title:            r.Title,
			OriginalTitle:    r.OriginalTitle,
			Year:             yearFromDate(r.ReleaseDate),
			PosterPath:       deref(r.PosterPath),
			Popularity:       r.Popularity,
			VoteAverage:      r.VoteAverage,
			VoteCount:        r.VoteCount,
			Overview:         r.Overview,
			GenreIDs:         r.GenreIDs,
			OriginalLanguage: r.OriginalLanguage,
		}, true

	case tmdb.MediaTypeTV:
		return Candidate{
			ID:               r.ID,
			MediaType:        MediaTypeTV,
			Title:            r.Name,
			OriginalTitle:    r.OriginalName,
			Year:             yearFromDate(r.FirstAirDate),
			PosterPath:       deref(r.PosterPath),
			Popularity:       r.Popularity,
			VoteAverage:      r.VoteAverage,
			VoteCount:        r.VoteCount,
			Overview:         r.Overview,
			GenreIDs:         r.GenreIDs,
			OriginalLanguage: r.OriginalLanguage,
		}, true

	case tmdb.MediaTypePerson:
		return Candidate{
			ID:         r.ID,
			MediaType:  MediaTypePerson,
			Title:      r.Name,
			PosterPath: deref(r.ProfilePath),
			Popularity: r.Popularity,
		}, true

	default:
		return Candidate{}, false
	}
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
