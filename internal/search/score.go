package search

import (
	"math"
	"sort"
	"strings"
)

// Weights holds the configurable coefficients of the relevance score.
// The defaults reproduce the reference ranking behavior; the relative
// priority (title match dominant, then text overlap, then
// popularity/votes, then recency/type/language as minor nudges) is what
// matters, not the specific values.
type Weights struct {
	Title           float64
	TextOverlap     float64
	Popularity      float64
	VoteQuality     float64
	Recency         float64
	TypeMatch       float64
	Language        float64
	AnchorThreshold float64
}

// DefaultWeights returns the reference scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Title:           3.5,
		TextOverlap:     1.2,
		Popularity:      0.8,
		VoteQuality:     1.0,
		Recency:         0.3,
		TypeMatch:       0.3,
		Language:        0.2,
		AnchorThreshold: 0.75,
	}
}

// popularityCeiling is the popularity value that saturates the
// popularity term.
const popularityCeiling = 200

// voteCountHalfScale controls how fast vote-count confidence saturates:
// a handful of votes contributes little, thousands saturate near 1.
const voteCountHalfScale = 5000

// ComputeScore produces the relevance score for one candidate against a
// query. All terms are summed; ordering is derived purely from
// comparing totals, not calibrated to a fixed range. Deterministic and
// pure given its inputs.
func ComputeScore(query string, c *Candidate, opts ScoreOptions, w Weights) (float64, Signal) {
	sig := TitleSignal(query, c.Title, c.OriginalTitle)

	score := w.Title * sig.Strength
	score += w.TextOverlap * textOverlap(query, c.Title+" "+c.OriginalTitle+" "+c.Overview)
	score += w.Popularity * clamp01(c.Popularity/popularityCeiling)
	score += w.VoteQuality * voteCountSignal(c.VoteCount) * clamp01(c.VoteAverage/10)
	score += w.Recency * recencyBoostYear(c.Year, opts.GetNow().Year())

	if opts.PreferredType != "" && opts.PreferredType != MediaTypeAll && c.MediaType == opts.PreferredType {
		score += w.TypeMatch
	}
	if languageMatches(c.OriginalLanguage, opts.LocaleLanguages) {
		score += w.Language
	}

	return score, sig
}

// textOverlap is a crude BM25-style proxy: token Jaccard overlap
// between query and text, damped by a log-length normalization so that
// longer, richer text is rewarded without letting very long overviews
// dominate. Clamped to [0,1].
func textOverlap(query, text string) float64 {
	qTokens := Tokenize(Normalize(query))
	tTokens := Tokenize(Normalize(text))
	if len(qTokens) == 0 || len(tTokens) == 0 {
		return 0
	}

	overlap := jaccard(strings.Join(qTokens, " "), strings.Join(tTokens, " "))

	length := len(tTokens)
	if length > 200 {
		length = 200
	}
	lengthNorm := math.Log10(float64(length)+10) / 2.3

	return clamp01(overlap * lengthNorm)
}

// voteCountSignal is a saturating confidence curve over vote count.
func voteCountSignal(voteCount int) float64 {
	if voteCount <= 0 {
		return 0
	}
	return 1 - math.Exp(-float64(voteCount)/voteCountHalfScale)
}

// recencyBoost maps an age in years onto [0,1]: 1.0 for age <= 2,
// fading linearly to 0 at age 25, 0 beyond.
func recencyBoost(ageYears float64) float64 {
	switch {
	case ageYears <= 2:
		return 1
	case ageYears >= 25:
		return 0
	default:
		return (25 - ageYears) / 23
	}
}

// recencyBoostYear applies recencyBoost to a release year. Unknown
// years (zero) contribute nothing.
func recencyBoostYear(year, currentYear int) float64 {
	if year <= 0 {
		return 0
	}
	return recencyBoost(float64(currentYear - year))
}

// languageMatches reports whether the candidate's original-language
// prefix matches any of the caller's locale language prefixes.
func languageMatches(originalLanguage string, locales []string) bool {
	lang := languagePrefix(originalLanguage)
	if lang == "" {
		return false
	}
	for _, locale := range locales {
		if languagePrefix(locale) == lang {
			return true
		}
	}
	return false
}

func languagePrefix(tag string) string {
	head, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(tag)), "-")
	return head
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RankTop scores every candidate, orders them (stable sort with the
// tie-break rules) and returns at most n results. This is the ranking
// entry point the autocomplete path delegates to.
func RankTop(query string, candidates []Candidate, n int, opts ScoreOptions, w Weights) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for i := range candidates {
		score, sig := ComputeScore(query, &candidates[i], opts, w)
		scored = append(scored, ScoredCandidate{
			Candidate: candidates[i],
			Score:     score,
			Signal:    sig,
		})
	}

	SortRanked(query, scored)

	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// SortRanked stable-sorts scored candidates into final presentation
// order. Tier rank dominates so a lower tier never outranks a higher
// one on auxiliary signals alone; the franchise-mode override is
// applied pairwise before any other comparison.
func SortRanked(query string, items []ScoredCandidate) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if franchiseMode(query, a, b) || a.Signal.Tier != b.Signal.Tier {
			return TieBreak(query, a, b) < 0
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return TieBreak(query, a, b) < 0
	})
}
