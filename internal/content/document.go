// Package content defines the document model consumed by the indexing,
// clustering, and recommendation engines. Documents are immutable once
// handed to a rebuild.
package content

import (
	"strings"
	"time"
)

// Entity is a pre-extracted named entity mention.
type Entity struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Document is a single blog post as supplied by the content store.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Excerpt     string    `json:"excerpt"`
	Tags        []string  `json:"tags"`
	Entities    []Entity  `json:"entities,omitempty"`
	Location    string    `json:"location,omitempty"`
	Country     string    `json:"country,omitempty"`
	Cluster     string    `json:"cluster,omitempty"`
	Language    string    `json:"language,omitempty"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Views       int64     `json:"views,omitempty"`
	ReadingTime int       `json:"readingTime,omitempty"`
}

// FullText returns the searchable text of the document: title, excerpt, and
// body combined.
func (d *Document) FullText() string {
	return d.Title + " " + d.Excerpt + " " + d.Content
}

// WordCount counts whitespace-separated words in the document body.
func (d *Document) WordCount() int {
	return len(strings.Fields(d.Content))
}

// EstimatedReadingTime returns the stored reading time, or derives it from
// the word count at roughly 200 words per minute. Minimum one minute for
// non-empty content.
func (d *Document) EstimatedReadingTime() int {
	if d.ReadingTime > 0 {
		return d.ReadingTime
	}
	words := d.WordCount()
	if words == 0 {
		return 0
	}
	return (words + 199) / 200
}

// EntityNames returns the lowercased names of all entity mentions.
func (d *Document) EntityNames() []string {
	names := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		names = append(names, strings.ToLower(e.Name))
	}
	return names
}

// TagSet returns the document's tags as a lowercased set.
func (d *Document) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Tags))
	for _, t := range d.Tags {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}
