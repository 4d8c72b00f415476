// Package tokenizer normalises raw post text into search terms. It
// lower-cases input, splits on non-alphanumeric boundaries, drops terms of
// two characters or fewer, and removes common function words. Tokenisation
// is pure: the same text always yields the same term sequence.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"and": {}, "are": {}, "but": {}, "can": {}, "did": {}, "for": {},
	"from": {}, "had": {}, "has": {}, "have": {}, "her": {}, "his": {},
	"into": {}, "its": {}, "not": {}, "our": {}, "out": {}, "she": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "was": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "who": {}, "will": {},
	"with": {}, "you": {}, "your": {}, "about": {}, "after": {}, "all": {},
	"also": {}, "been": {},
}

// Tokenize breaks text into lowercased terms with punctuation stripped,
// short terms and stop-words removed.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// TermSet returns the distinct terms of text as a set.
func TermSet(text string) map[string]struct{} {
	terms := Tokenize(text)
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// IsStopWord reports whether the lowercased word is in the stop-word set.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}
