package tags

import (
	"strings"
	"unicode"
)

const (
	minTokenLength = 3
	maxTags        = 10
)

// stopWords are tokens that never help narrow a catalog query: articles,
// prepositions, and marketing filler that shows up in nearly every listing.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "are": true, "was": true, "has": true,
	"all": true, "you": true, "your": true, "our": true, "its": true,
	"new": true, "sale": true, "shop": true, "buy": true, "get": true,
	"off": true, "per": true, "set": true, "one": true, "two": true,
}

// Extract turns a product title into an ordered set of lowercase tag tokens.
// Non-alphanumeric characters become spaces, tokens shorter than three
// characters and stop words are dropped, duplicates keep their first
// occurrence, and the result is capped at ten tags.
func Extract(title string) []string {
	if title == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, token := range strings.Fields(b.String()) {
		if len(token) < minTokenLength || stopWords[token] || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
		if len(out) == maxTags {
			break
		}
	}

	return out
}
