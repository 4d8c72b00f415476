package search

import (
	"strings"
	"time"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
)

// Filters narrow fused results before sorting and the final limit. Zero
// values mean "no constraint".
type Filters struct {
	Language        string    `json:"language,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Location        string    `json:"location,omitempty"`
	PublishedAfter  time.Time `json:"publishedAfter,omitempty"`
	PublishedBefore time.Time `json:"publishedBefore,omitempty"`
	MinReadingTime  int       `json:"minReadingTime,omitempty"`
	MaxReadingTime  int       `json:"maxReadingTime,omitempty"`
}

func (f Filters) match(doc *content.Document) bool {
	if f.Language != "" && !strings.EqualFold(f.Language, doc.Language) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, doc.Category) {
		return false
	}
	if len(f.Tags) > 0 && !anyTagMatches(f.Tags, doc) {
		return false
	}
	if f.Location != "" && !locationMatches(f.Location, doc) {
		return false
	}
	if !f.PublishedAfter.IsZero() && doc.PublishedAt.Before(f.PublishedAfter) {
		return false
	}
	if !f.PublishedBefore.IsZero() && doc.PublishedAt.After(f.PublishedBefore) {
		return false
	}
	if f.MinReadingTime > 0 && doc.EstimatedReadingTime() < f.MinReadingTime {
		return false
	}
	if f.MaxReadingTime > 0 && doc.EstimatedReadingTime() > f.MaxReadingTime {
		return false
	}
	return true
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// anyTagMatches reports whether the document carries at least one of the
// requested tags.
func anyTagMatches(tags []string, doc *content.Document) bool {
	docTags := doc.TagSet()
	for _, t := range tags {
		if _, ok := docTags[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

// locationMatches performs a case-insensitive substring match against the
// document's location and country.
func locationMatches(location string, doc *content.Document) bool {
	needle := strings.ToLower(location)
	return strings.Contains(strings.ToLower(doc.Location), needle) ||
		strings.Contains(strings.ToLower(doc.Country), needle)
}
