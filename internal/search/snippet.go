package search

import (
	"strings"
	"unicode/utf8"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
)

const (
	snippetLength  = 150
	snippetLead    = 50
	contentPreview = 500
)

// makeSnippet extracts a result snippet around the earliest matched term.
// The search space is the excerpt, or the first 500 characters of content
// when no excerpt exists. With no matched term the snippet is simply the
// leading 150 characters.
func makeSnippet(doc *content.Document, matchedTerms []string) string {
	source := doc.Excerpt
	if source == "" {
		source = clip(doc.Content, 0, contentPreview)
	}
	if source == "" {
		return ""
	}

	pos := earliestMatch(source, matchedTerms)
	if pos < 0 {
		return clip(source, 0, snippetLength)
	}
	start := pos - snippetLead
	if start < 0 {
		start = 0
	}
	return clip(source, start, snippetLength)
}

// earliestMatch returns the lowest index at which any term occurs in text
// (case-insensitive), or -1.
func earliestMatch(text string, terms []string) int {
	lower := strings.ToLower(text)
	best := -1
	for _, term := range terms {
		if term == "" {
			continue
		}
		if idx := strings.Index(lower, term); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

// clip cuts a window out of text by byte offset, pulling both cut points
// back to rune boundaries so multi-byte characters are never split.
func clip(text string, start, length int) string {
	if start >= len(text) {
		return ""
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := start + length
	if end >= len(text) {
		end = len(text)
	} else {
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
	}
	return text[start:end]
}
