package search

import "strings"

// TieBreak total-orders two scored candidates. It returns a signed
// comparator result (<0 means a sorts before b) and is meant to be fed
// to a stable sort.
//
// When the query is a single bare token and both candidates' titles
// (article-stripped) start with that token, "franchise mode" applies:
// the earliest release year wins, so the original entry in a franchise
// outranks sequels and remakes regardless of popularity. Outside
// franchise mode the tier rank decides first, then vote count, vote
// average and release year.
func TieBreak(query string, a, b *ScoredCandidate) int {
	if franchiseMode(query, a, b) {
		return franchiseCompare(a, b)
	}

	if a.Signal.Tier != b.Signal.Tier {
		if a.Signal.Tier > b.Signal.Tier {
			return -1
		}
		return 1
	}
	if a.VoteCount != b.VoteCount {
		if a.VoteCount > b.VoteCount {
			return -1
		}
		return 1
	}
	if a.VoteAverage != b.VoteAverage {
		if a.VoteAverage > b.VoteAverage {
			return -1
		}
		return 1
	}
	// More recent release year wins outside franchise mode.
	if a.Year != b.Year {
		if a.Year > b.Year {
			return -1
		}
		return 1
	}
	return 0
}

// franchiseMode detects the franchise-head disambiguation case: a bare
// single-token query where both titles share that token as their
// article-stripped prefix. Deliberately restricted to single-token
// queries; multi-token queries keep the generic ordering.
func franchiseMode(query string, a, b *ScoredCandidate) bool {
	tokens := Tokenize(Normalize(query))
	if len(tokens) != 1 {
		return false
	}
	tok := tokens[0]
	return titleStartsWithToken(a.Title, tok) && titleStartsWithToken(b.Title, tok)
}

func titleStartsWithToken(title, token string) bool {
	stripped := stripArticle(tokenKey(title))
	return stripped == token || strings.HasPrefix(stripped, token)
}

// franchiseCompare orders franchise-mode candidates: earliest release
// year first, then higher vote count, then higher vote average.
// Unknown years sort last.
func franchiseCompare(a, b *ScoredCandidate) int {
	ay, by := a.Year, b.Year
	if ay != by {
		switch {
		case ay == 0:
			return 1
		case by == 0:
			return -1
		case ay < by:
			return -1
		default:
			return 1
		}
	}
	if a.VoteCount != b.VoteCount {
		if a.VoteCount > b.VoteCount {
			return -1
		}
		return 1
	}
	if a.VoteAverage != b.VoteAverage {
		if a.VoteAverage > b.VoteAverage {
			return -1
		}
		return 1
	}
	return 0
}
