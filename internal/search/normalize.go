package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize converts a query or title to its canonical comparison form:
// NFKD decomposition, combining diacritical marks stripped, lowercased,
// trimmed. Idempotent.
func Normalize(s string) string {
	// Transformers are stateful; build per call rather than sharing.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

var hyphenReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
)

// CanonicalForms produces an ordered, deduplicated list of equivalent
// spellings of a query: the normalized form, a hyphen-unified form, a
// spaced form and a tight form. A query like "z-nation" has to match
// titles spelled "Z Nation" or "Znation" without literal equality.
func CanonicalForms(query string) []string {
	normalized := Normalize(query)
	unified := hyphenReplacer.Replace(normalized)
	spaced := collapseSpaces(strings.ReplaceAll(unified, "-", " "))
	dashed := strings.ReplaceAll(spaced, " ", "-")
	tight := strings.ReplaceAll(spaced, " ", "")

	forms := make([]string, 0, 4)
	seen := make(map[string]bool, 4)
	for _, f := range []string{normalized, unified, spaced, dashed, tight} {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		forms = append(forms, f)
	}
	return forms
}

// SpacedForm returns the hyphens-to-spaces canonical form of a query,
// the preferred spelling for seed fetches.
func SpacedForm(query string) string {
	hyphenated := hyphenReplacer.Replace(Normalize(query))
	return collapseSpaces(strings.ReplaceAll(hyphenated, "-", " "))
}

// Tokenize splits a string on any run of non-alphanumeric,
// non-apostrophe characters into lowercase tokens. Empty tokens are
// discarded.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
