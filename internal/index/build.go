package index

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index/tokenizer"
)

// BuildOptions tunes index construction.
type BuildOptions struct {
	// KeywordsPerDocument caps the per-document keyword list extracted from
	// the highest-weighted TF-IDF terms. Zero means the default of 15.
	KeywordsPerDocument int
}

const defaultKeywordsPerDocument = 15

// docFeatures holds the per-document extraction result. Extraction is
// order-independent, so it runs in parallel across documents.
type docFeatures struct {
	termCounts map[string]int
	tokenCount int
}

// Build constructs a complete Snapshot from a corpus. Rebuilding with the
// same corpus yields identical structures: documents are processed in
// lexicographic ID order and the vocabulary is sorted, so no map iteration
// order leaks into the output.
func Build(ctx context.Context, docs []content.Document, opts BuildOptions) (*Snapshot, error) {
	keywordsPer := opts.KeywordsPerDocument
	if keywordsPer <= 0 {
		keywordsPer = defaultKeywordsPerDocument
	}

	byID := make(map[string]*content.Document, len(docs))
	ids := make([]string, 0, len(docs))
	for i := range docs {
		doc := docs[i]
		if doc.ID == "" {
			return nil, fmt.Errorf("document at position %d has no ID", i)
		}
		if _, dup := byID[doc.ID]; dup {
			return nil, fmt.Errorf("duplicate document ID %q", doc.ID)
		}
		byID[doc.ID] = &doc
		ids = append(ids, doc.ID)
	}
	sort.Strings(ids)

	features := make([]docFeatures, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			terms := tokenizer.Tokenize(byID[id].FullText())
			counts := make(map[string]int, len(terms))
			for _, t := range terms {
				counts[t]++
			}
			features[i] = docFeatures{termCounts: counts, tokenCount: len(terms)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extracting document features: %w", err)
	}

	snap := &Snapshot{
		DocIDs:      ids,
		docs:        byID,
		termFreqs:   make(map[string]map[string]float64, len(ids)),
		tokenCounts: make(map[string]int, len(ids)),
		idf:         make(map[string]float64),
		vectors:     make(map[string][]float64, len(ids)),
		keywords:    make(map[string][]string, len(ids)),
	}

	// Document frequency is a commutative sum over per-document term sets,
	// accumulated here in corpus order.
	df := make(map[string]int)
	for i, id := range ids {
		f := features[i]
		tf := make(map[string]float64, len(f.termCounts))
		for term, count := range f.termCounts {
			tf[term] = float64(count) / float64(f.tokenCount)
			df[term]++
		}
		snap.termFreqs[id] = tf
		snap.tokenCounts[id] = f.tokenCount
	}

	totalDocs := float64(len(ids))
	vocabulary := make([]string, 0, len(df))
	for term, freq := range df {
		snap.idf[term] = math.Log(totalDocs / float64(freq))
		vocabulary = append(vocabulary, term)
	}
	sort.Strings(vocabulary)
	snap.vocabulary = vocabulary

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	results := make([][]float64, len(ids))
	keywordLists := make([][]string, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec := buildVector(snap.termFreqs[id], snap.idf, vocabulary)
			results[i] = vec
			keywordLists[i] = topKeywords(snap.termFreqs[id], snap.idf, keywordsPer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building document vectors: %w", err)
	}
	for i, id := range ids {
		snap.vectors[id] = results[i]
		snap.keywords[id] = keywordLists[i]
	}

	buildAuxiliaryIndexes(snap)
	return snap, nil
}

// buildVector assembles the TF-IDF vector over the full vocabulary and
// L2-normalises it. A document with no weighted terms keeps a zero vector;
// there is never a division by zero.
func buildVector(tf map[string]float64, idf map[string]float64, vocabulary []string) []float64 {
	vec := make([]float64, len(vocabulary))
	var sumSquares float64
	for i, term := range vocabulary {
		if f, ok := tf[term]; ok {
			w := f * idf[term]
			vec[i] = w
			sumSquares += w * w
		}
	}
	if sumSquares == 0 {
		return vec
	}
	magnitude := math.Sqrt(sumSquares)
	for i := range vec {
		vec[i] /= magnitude
	}
	return vec
}

// topKeywords picks the k highest-weighted terms of a document, breaking
// weight ties lexicographically.
func topKeywords(tf map[string]float64, idf map[string]float64, k int) []string {
	type weighted struct {
		term   string
		weight float64
	}
	terms := make([]weighted, 0, len(tf))
	for term, f := range tf {
		w := f * idf[term]
		if w <= 0 {
			continue
		}
		terms = append(terms, weighted{term: term, weight: w})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].weight != terms[j].weight {
			return terms[i].weight > terms[j].weight
		}
		return terms[i].term < terms[j].term
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	keywords := make([]string, len(terms))
	for i, t := range terms {
		keywords[i] = t.term
	}
	return keywords
}

// buildAuxiliaryIndexes populates the entity, location, and cluster/tag
// inverted indexes in one pass over the corpus. Documents are visited in
// sorted ID order, so every posting list comes out sorted.
func buildAuxiliaryIndexes(snap *Snapshot) {
	snap.entityIndex = make(map[string][]string)
	snap.locationIndex = make(map[string][]string)
	snap.clusterIndex = make(map[string][]string)

	for _, id := range snap.DocIDs {
		doc := snap.docs[id]
		for _, entity := range doc.Entities {
			appendUnique(snap.entityIndex, entity.Name, id)
		}
		if doc.Location != "" {
			appendUnique(snap.locationIndex, doc.Location, id)
		}
		if doc.Country != "" {
			appendUnique(snap.locationIndex, doc.Country, id)
		}
		if doc.Cluster != "" {
			appendUnique(snap.clusterIndex, doc.Cluster, id)
		}
		for _, tag := range doc.Tags {
			appendUnique(snap.clusterIndex, tag, id)
		}
	}
}

func appendUnique(index map[string][]string, rawKey, docID string) {
	key := normalizeKey(rawKey)
	if key == "" {
		return
	}
	list := index[key]
	if len(list) > 0 && list[len(list)-1] == docID {
		return
	}
	index[key] = append(list, docID)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
