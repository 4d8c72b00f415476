// Package search implements multi-stage retrieval over the published index.
// Independent stages (exact, TF-IDF, entity, cluster) each score candidate
// documents; their scores are fused with fixed stage weights, then filters,
// sorting, and the result limit are applied.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index/tokenizer"
)

// Stage weights for score fusion. The semantic stage is reserved for an
// embedding-backed implementation and currently contributes nothing.
const (
	weightExact    = 1.0
	weightTFIDF    = 0.8
	weightSemantic = 0.7
	weightEntity   = 0.6
	weightCluster  = 0.4
)

// Stage match scores for the non-TF-IDF stages.
const (
	scoreExact   = 1.0
	scoreEntity  = 0.8
	scoreCluster = 0.6
)

// Sort selects the result ordering.
type Sort string

const (
	SortRelevance   Sort = "relevance"
	SortDate        Sort = "date"
	SortPopularity  Sort = "popularity"
	SortReadingTime Sort = "readingTime"
)

// Request is a single search invocation.
type Request struct {
	Query   string  `json:"query"`
	Filters Filters `json:"filters"`
	Sort    Sort    `json:"sort"`
	Limit   int     `json:"limit"`
}

// Result is one ranked hit.
type Result struct {
	DocumentID       string   `json:"documentId"`
	Score            float64  `json:"score"`
	Snippet          string   `json:"snippet"`
	HighlightedTerms []string `json:"highlightedTerms"`
}

// Searcher executes queries against the engine's published snapshot. It
// never mutates the index.
type Searcher struct {
	engine *index.Engine
	logger *slog.Logger
}

// New creates a Searcher bound to the given engine.
func New(engine *index.Engine) *Searcher {
	return &Searcher{
		engine: engine,
		logger: slog.Default().With("component", "searcher"),
	}
}

// stageMatch is a single stage's contribution for one document.
type stageMatch struct {
	score float64
	terms []string
}

// fused accumulates the weighted stage scores for one document.
type fused struct {
	score float64
	terms map[string]struct{}
}

// Search runs all retrieval stages, fuses their scores, applies filters and
// sorting, and truncates to the request limit. An empty query returns an
// empty list; querying before the first index build returns
// errors.ErrEngineNotReady.
func (s *Searcher) Search(ctx context.Context, req Request) ([]Result, error) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return []Result{}, nil
	}
	queryLower := strings.ToLower(query)
	queryTerms := tokenizer.Tokenize(query)

	combined := make(map[string]*fused)
	merge := func(matches map[string]stageMatch, weight float64) {
		for docID, m := range matches {
			f, ok := combined[docID]
			if !ok {
				f = &fused{terms: make(map[string]struct{})}
				combined[docID] = f
			}
			f.score += m.score * weight
			for _, t := range m.terms {
				f.terms[t] = struct{}{}
			}
		}
	}

	merge(s.exactStage(snap, queryLower), weightExact)
	merge(s.tfidfStage(snap, queryTerms), weightTFIDF)
	merge(s.semanticStage(snap, queryLower), weightSemantic)
	merge(s.entityStage(snap, queryLower), weightEntity)
	merge(s.clusterStage(snap, queryLower), weightCluster)

	results := make([]Result, 0, len(combined))
	for docID, f := range combined {
		doc := snap.Document(docID)
		if doc == nil {
			continue
		}
		if !req.Filters.match(doc) {
			continue
		}
		terms := make([]string, 0, len(f.terms))
		for t := range f.terms {
			terms = append(terms, t)
		}
		sort.Strings(terms)
		results = append(results, Result{
			DocumentID:       docID,
			Score:            f.score,
			Snippet:          makeSnippet(doc, terms),
			HighlightedTerms: terms,
		})
	}

	sortResults(results, snap, req.Sort)
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}

	s.logger.Debug("search executed",
		"query", query,
		"candidates", len(combined),
		"results", len(results),
	)
	return results, nil
}

// exactStage matches the raw query as a case-insensitive substring of the
// document's full text.
func (s *Searcher) exactStage(snap *index.Snapshot, queryLower string) map[string]stageMatch {
	matches := make(map[string]stageMatch)
	for _, id := range snap.DocIDs {
		doc := snap.Document(id)
		if strings.Contains(strings.ToLower(doc.FullText()), queryLower) {
			matches[id] = stageMatch{score: scoreExact, terms: []string{queryLower}}
		}
	}
	return matches
}

// tfidfStage sums tf x idf over the query terms present in each document.
// Documents with no term overlap are excluded from this stage.
func (s *Searcher) tfidfStage(snap *index.Snapshot, queryTerms []string) map[string]stageMatch {
	matches := make(map[string]stageMatch)
	if len(queryTerms) == 0 {
		return matches
	}
	for _, id := range snap.DocIDs {
		var score float64
		var matched []string
		for _, term := range queryTerms {
			if w := snap.TFIDF(id, term); w > 0 {
				score += w
				matched = append(matched, term)
			}
		}
		if score > 0 {
			matches[id] = stageMatch{score: score, terms: matched}
		}
	}
	return matches
}

// semanticStage is a placeholder for embedding-based retrieval. It always
// returns no matches; a real implementation needs an external embedding
// model wired in.
func (s *Searcher) semanticStage(_ *index.Snapshot, _ string) map[string]stageMatch {
	return nil
}

// entityStage matches the query as a substring of any indexed entity name.
func (s *Searcher) entityStage(snap *index.Snapshot, queryLower string) map[string]stageMatch {
	matches := make(map[string]stageMatch)
	for _, key := range snap.EntityKeys() {
		if !strings.Contains(key, queryLower) {
			continue
		}
		for _, docID := range snap.DocsByEntity(key) {
			m, ok := matches[docID]
			if !ok {
				m = stageMatch{score: scoreEntity}
			}
			m.terms = append(m.terms, key)
			matches[docID] = m
		}
	}
	return matches
}

// clusterStage matches the query as a substring of any indexed cluster or
// tag key.
func (s *Searcher) clusterStage(snap *index.Snapshot, queryLower string) map[string]stageMatch {
	matches := make(map[string]stageMatch)
	for _, key := range snap.ClusterKeys() {
		if !strings.Contains(key, queryLower) {
			continue
		}
		for _, docID := range snap.DocsByCluster(key) {
			m, ok := matches[docID]
			if !ok {
				m = stageMatch{score: scoreCluster}
			}
			m.terms = append(m.terms, key)
			matches[docID] = m
		}
	}
	return matches
}

// sortResults orders results in place. Relevance keeps the fused ranking;
// all orders break ties by document ID so output is deterministic.
func sortResults(results []Result, snap *index.Snapshot, order Sort) {
	less := func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	}
	switch order {
	case SortDate:
		less = func(i, j int) bool {
			a := snap.Document(results[i].DocumentID).PublishedAt
			b := snap.Document(results[j].DocumentID).PublishedAt
			if !a.Equal(b) {
				return a.After(b)
			}
			return results[i].DocumentID < results[j].DocumentID
		}
	case SortPopularity:
		less = func(i, j int) bool {
			a := snap.Document(results[i].DocumentID).Views
			b := snap.Document(results[j].DocumentID).Views
			if a != b {
				return a > b
			}
			return results[i].DocumentID < results[j].DocumentID
		}
	case SortReadingTime:
		less = func(i, j int) bool {
			a := snap.Document(results[i].DocumentID).EstimatedReadingTime()
			b := snap.Document(results[j].DocumentID).EstimatedReadingTime()
			if a != b {
				return a < b
			}
			return results[i].DocumentID < results[j].DocumentID
		}
	}
	sort.Slice(results, less)
}
