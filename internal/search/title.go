package search

import (
	"regexp"
	"strings"
)

// Tier classifies how strongly a query matches a title field. The
// ordering is a strict total order used in tie-breaking: exact >
// leading > starts > word > contains > overlap.
type Tier int

const (
	TierNone Tier = iota
	TierOverlap
	TierContains
	TierWord
	TierStarts
	TierLeading
	TierExact
)

// Tier strengths. Overlap has no fixed strength; it is a scaled Jaccard
// similarity computed by the caller.
const (
	strengthExact    = 1.0
	strengthLeading  = 0.98
	strengthStarts   = 0.93
	strengthWord     = 0.90
	strengthContains = 0.78

	// overlapScale scales the Jaccard fallback so it can never beat a
	// word-boundary match.
	overlapScale = 0.85

	// strongTierFloor: the Jaccard fallback is only considered when no
	// stronger tier reached this strength.
	strongTierFloor = 0.80
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierLeading:
		return "leading"
	case TierStarts:
		return "starts"
	case TierWord:
		return "word"
	case TierContains:
		return "contains"
	case TierOverlap:
		return "overlap"
	default:
		return "none"
	}
}

// Signal is the per-(query, candidate) title-match result: a tier label
// and a scalar strength in [0,1].
type Signal struct {
	Tier     Tier
	Strength float64
}

var leadingArticles = map[string]bool{"the": true, "a": true, "an": true}

// tokenKey joins the normalized tokens of s with single spaces,
// producing the comparison form used by tier classification.
func tokenKey(s string) string {
	return strings.Join(Tokenize(Normalize(s)), " ")
}

// stripArticle removes a leading "the"/"a"/"an" token from a token-
// joined string.
func stripArticle(joined string) string {
	head, rest, found := strings.Cut(joined, " ")
	if found && leadingArticles[head] {
		return rest
	}
	return joined
}

// titleTier classifies how the token-joined query matches one title
// field. Both arguments must already be in tokenKey form. Returns
// TierNone when no tier short of the Jaccard fallback applies.
func titleTier(query, field string) Signal {
	if query == "" || field == "" {
		return Signal{Tier: TierNone}
	}

	stripped := stripArticle(field)

	if field == query {
		return Signal{Tier: TierExact, Strength: strengthExact}
	}
	if stripped == query || strings.HasPrefix(stripped, query+" ") {
		return Signal{Tier: TierLeading, Strength: strengthLeading}
	}
	if prefixAtBoundary(stripped, query) {
		return Signal{Tier: TierStarts, Strength: strengthStarts}
	}
	if strings.Contains(" "+field+" ", " "+query+" ") {
		return Signal{Tier: TierWord, Strength: strengthWord}
	}
	if strings.Contains(field, query) {
		return Signal{Tier: TierContains, Strength: strengthContains}
	}
	return Signal{Tier: TierNone}
}

// prefixAtBoundary reports whether field starts with query ending at a
// word boundary (^query\b).
func prefixAtBoundary(field, query string) bool {
	re, err := boundaryPrefixPattern(query)
	if err != nil {
		return false
	}
	return re.MatchString(field)
}

func boundaryPrefixPattern(query string) (*regexp.Regexp, error) {
	return regexp.Compile(`^` + regexp.QuoteMeta(query) + `\b`)
}

// jaccard computes token-set Jaccard similarity of two token-joined
// strings.
func jaccard(a, b string) float64 {
	ta, tb := strings.Fields(a), strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}

	seen := make(map[string]bool, len(tb))
	intersection := 0
	union := len(set)
	for _, t := range tb {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}

// TitleSignal computes the best title-match signal for a candidate
// across its title fields (display title, original title, aliases).
// Strong tiers win outright; the Jaccard fallback is accepted only when
// no strong tier reached the floor and the scaled similarity beats
// whatever weak tier was found.
func TitleSignal(query string, fields ...string) Signal {
	q := tokenKey(query)
	if q == "" {
		return Signal{Tier: TierNone}
	}

	best := Signal{Tier: TierNone}
	bestOverlap := 0.0

	for _, f := range fields {
		key := tokenKey(f)
		if key == "" {
			continue
		}
		if sig := titleTier(q, key); sig.Tier > best.Tier {
			best = sig
		}
		if ov := jaccard(q, key) * overlapScale; ov > bestOverlap {
			bestOverlap = ov
		}
	}

	if best.Strength < strongTierFloor && bestOverlap > best.Strength {
		return Signal{Tier: TierOverlap, Strength: bestOverlap}
	}
	return best
}
