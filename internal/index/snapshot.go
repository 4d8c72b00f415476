// Package index builds the TF-IDF index over a corpus snapshot. A build
// produces an immutable Snapshot holding term frequencies, inverse document
// frequencies, L2-normalised document vectors, and the auxiliary inverted
// indexes. The Engine publishes snapshots with an atomic pointer swap so
// readers never observe a partially built index.
package index

import (
	"sort"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
)

// Snapshot is a fully built, immutable view of the indexed corpus.
type Snapshot struct {
	// DocIDs is the corpus in lexicographic order. All order-dependent
	// downstream algorithms iterate this slice so results are reproducible.
	DocIDs []string

	docs        map[string]*content.Document
	termFreqs   map[string]map[string]float64
	tokenCounts map[string]int
	idf         map[string]float64
	vocabulary  []string
	vectors     map[string][]float64
	keywords    map[string][]string

	entityIndex   map[string][]string
	locationIndex map[string][]string
	clusterIndex  map[string][]string
}

// DocCount returns the number of indexed documents.
func (s *Snapshot) DocCount() int {
	return len(s.DocIDs)
}

// Document returns the indexed document with the given ID, or nil.
func (s *Snapshot) Document(id string) *content.Document {
	return s.docs[id]
}

// Documents returns all indexed documents in lexicographic ID order.
func (s *Snapshot) Documents() []*content.Document {
	docs := make([]*content.Document, 0, len(s.DocIDs))
	for _, id := range s.DocIDs {
		docs = append(docs, s.docs[id])
	}
	return docs
}

// TermFrequency returns the length-normalised frequency of term in doc.
func (s *Snapshot) TermFrequency(docID, term string) float64 {
	return s.termFreqs[docID][term]
}

// IDF returns ln(N/df) for the term, or 0 for unseen terms.
func (s *Snapshot) IDF(term string) float64 {
	return s.idf[term]
}

// TFIDF returns tf(term in doc) x idf(term).
func (s *Snapshot) TFIDF(docID, term string) float64 {
	tf, ok := s.termFreqs[docID][term]
	if !ok {
		return 0
	}
	return tf * s.idf[term]
}

// Vocabulary returns the sorted corpus vocabulary.
func (s *Snapshot) Vocabulary() []string {
	return s.vocabulary
}

// Vector returns the L2-normalised TF-IDF vector of the document over the
// full vocabulary. Its magnitude is 1, or 0 for documents with no weighted
// terms.
func (s *Snapshot) Vector(docID string) []float64 {
	return s.vectors[docID]
}

// Keywords returns the document's top TF-IDF terms, highest weight first.
func (s *Snapshot) Keywords(docID string) []string {
	return s.keywords[docID]
}

// CosineSimilarity returns the cosine similarity of two document vectors.
// Vectors are already L2-normalised, so this is a plain dot product; a zero
// vector on either side yields 0.
func (s *Snapshot) CosineSimilarity(aID, bID string) float64 {
	a, b := s.vectors[aID], s.vectors[bID]
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

// DocsByEntity returns the IDs of documents mentioning the entity name
// (case-insensitive exact key lookup).
func (s *Snapshot) DocsByEntity(name string) []string {
	return s.entityIndex[normalizeKey(name)]
}

// DocsByLocation returns the IDs of documents tagged with the location or
// country key.
func (s *Snapshot) DocsByLocation(key string) []string {
	return s.locationIndex[normalizeKey(key)]
}

// DocsByCluster returns the IDs of documents carrying the cluster or tag key.
func (s *Snapshot) DocsByCluster(key string) []string {
	return s.clusterIndex[normalizeKey(key)]
}

// EntityKeys returns all indexed entity keys in sorted order.
func (s *Snapshot) EntityKeys() []string {
	return sortedKeys(s.entityIndex)
}

// LocationKeys returns all indexed location keys in sorted order.
func (s *Snapshot) LocationKeys() []string {
	return sortedKeys(s.locationIndex)
}

// ClusterKeys returns all indexed cluster/tag keys in sorted order.
func (s *Snapshot) ClusterKeys() []string {
	return sortedKeys(s.clusterIndex)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
