// Package recommend blends five independent signals (cluster co-membership,
// entity overlap, geographic proximity, content similarity, popularity)
// into a ranked per-document recommendation list. Signals are isolated: a
// failure in one generator is logged and skipped, never aborting the call.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/errors"
)

// Recommendation types, one per signal.
const (
	TypeCluster    = "cluster"
	TypeEntity     = "entity"
	TypeGeographic = "geographic"
	TypeSimilar    = "similar-content"
	TypePopular    = "popular"
)

// Per-signal relevance constants.
const (
	clusterRelevance  = 0.8
	sameLocationScore = 0.9
	sameCountryScore  = 0.6
)

const defaultCount = 5

// Recommendation is one ranked suggestion.
type Recommendation struct {
	DocumentID string  `json:"documentId"`
	Score      float64 `json:"score"`
	Type       string  `json:"recommendationType"`
	Reasoning  string  `json:"reasoning"`
}

// Recommender reads the published index and the latest optimized cluster
// set. The cluster set is swapped in after each rebuild.
type Recommender struct {
	engine     *index.Engine
	clustersBy atomic.Pointer[map[string]*cluster.TopicCluster]
	logger     *slog.Logger
}

// New creates a Recommender bound to the given engine.
func New(engine *index.Engine) *Recommender {
	return &Recommender{
		engine: engine,
		logger: slog.Default().With("component", "recommender"),
	}
}

// SetClusters publishes the optimized cluster set used by the cluster
// co-membership signal.
func (r *Recommender) SetClusters(clusters []cluster.TopicCluster) {
	byDoc := make(map[string]*cluster.TopicCluster)
	for i := range clusters {
		for _, id := range clusters[i].Members {
			byDoc[id] = &clusters[i]
		}
	}
	r.clustersBy.Store(&byDoc)
}

// signal produces at most count candidates for one recommendation type.
type signal struct {
	name string
	run  func(snap *index.Snapshot, doc *content.Document, count int) []Recommendation
}

// Recommend returns up to count suggestions for the given document,
// guaranteed not to include the document itself. Candidates suggested by
// several signals keep their maximum relevance score.
func (r *Recommender) Recommend(ctx context.Context, docID string, count int) ([]Recommendation, error) {
	snap, err := r.engine.Snapshot()
	if err != nil {
		return nil, err
	}
	doc := snap.Document(docID)
	if doc == nil {
		return nil, errors.Newf(errors.ErrDocumentNotFound, 404, "document %q is not indexed", docID)
	}
	if count <= 0 {
		count = defaultCount
	}

	signals := []signal{
		{name: "cluster", run: r.clusterSignal},
		{name: "entity", run: r.entitySignal},
		{name: "geographic", run: r.geographicSignal},
		{name: "similar-content", run: r.similaritySignal},
		{name: "popularity", run: r.popularitySignal},
	}

	best := make(map[string]Recommendation)
	for _, sig := range signals {
		for _, rec := range r.runIsolated(sig, snap, doc, count) {
			if rec.DocumentID == docID {
				continue
			}
			if existing, ok := best[rec.DocumentID]; !ok || rec.Score > existing.Score {
				best[rec.DocumentID] = rec
			}
		}
	}

	merged := make([]Recommendation, 0, len(best))
	for _, rec := range best {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].DocumentID < merged[j].DocumentID
	})
	if len(merged) > count {
		merged = merged[:count]
	}
	return merged, nil
}

// runIsolated executes one signal, converting a panic into a logged skip so
// the remaining signals still contribute.
func (r *Recommender) runIsolated(sig signal, snap *index.Snapshot, doc *content.Document, count int) (recs []Recommendation) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recommendation signal failed",
				"signal", sig.name,
				"document", doc.ID,
				"panic", rec,
			)
			recs = nil
		}
	}()
	return sig.run(snap, doc, count)
}

// clusterSignal suggests co-members of the document's final topic cluster.
func (r *Recommender) clusterSignal(snap *index.Snapshot, doc *content.Document, count int) []Recommendation {
	byDoc := r.clustersBy.Load()
	if byDoc == nil {
		return nil
	}
	cl := (*byDoc)[doc.ID]
	if cl == nil {
		return nil
	}
	recs := make([]Recommendation, 0, count)
	for _, id := range cl.Members {
		if id == doc.ID {
			continue
		}
		recs = append(recs, Recommendation{
			DocumentID: id,
			Score:      clusterRelevance,
			Type:       TypeCluster,
			Reasoning:  fmt.Sprintf("Also in the %s collection", cl.Name),
		})
		if len(recs) == count {
			break
		}
	}
	return recs
}

// entitySignal suggests documents sharing entity mentions, scored by the
// size of the overlap relative to the source document's entity list.
func (r *Recommender) entitySignal(snap *index.Snapshot, doc *content.Document, count int) []Recommendation {
	source := doc.EntityNames()
	if len(source) == 0 {
		return nil
	}
	shared := make(map[string]int)
	for _, name := range source {
		for _, id := range snap.DocsByEntity(name) {
			if id != doc.ID {
				shared[id]++
			}
		}
	}
	recs := make([]Recommendation, 0, len(shared))
	for id, overlap := range shared {
		score := float64(overlap) / float64(len(source))
		if score > 1 {
			score = 1
		}
		recs = append(recs, Recommendation{
			DocumentID: id,
			Score:      score,
			Type:       TypeEntity,
			Reasoning:  fmt.Sprintf("Covers %d of the same places and topics", overlap),
		})
	}
	sortByScore(recs)
	if len(recs) > count {
		recs = recs[:count]
	}
	return recs
}

// geographicSignal suggests documents from the same location or country.
// An exact location match outscores a country-level match.
func (r *Recommender) geographicSignal(snap *index.Snapshot, doc *content.Document, count int) []Recommendation {
	recs := make([]Recommendation, 0, count)
	seen := make(map[string]struct{})
	if doc.Location != "" {
		for _, id := range snap.DocsByLocation(doc.Location) {
			if id == doc.ID {
				continue
			}
			seen[id] = struct{}{}
			recs = append(recs, Recommendation{
				DocumentID: id,
				Score:      sameLocationScore,
				Type:       TypeGeographic,
				Reasoning:  fmt.Sprintf("More from %s", doc.Location),
			})
		}
	}
	if doc.Country != "" && !strings.EqualFold(doc.Country, doc.Location) {
		for _, id := range snap.DocsByLocation(doc.Country) {
			if id == doc.ID {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			recs = append(recs, Recommendation{
				DocumentID: id,
				Score:      sameCountryScore,
				Type:       TypeGeographic,
				Reasoning:  fmt.Sprintf("More from %s", strings.ToUpper(doc.Country)),
			})
		}
	}
	sortByScore(recs)
	if len(recs) > count {
		recs = recs[:count]
	}
	return recs
}

// similaritySignal scores every other document by TF-IDF cosine similarity
// against the source vector.
func (r *Recommender) similaritySignal(snap *index.Snapshot, doc *content.Document, count int) []Recommendation {
	recs := make([]Recommendation, 0, count)
	for _, id := range snap.DocIDs {
		if id == doc.ID {
			continue
		}
		score := snap.CosineSimilarity(doc.ID, id)
		if score <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			DocumentID: id,
			Score:      score,
			Type:       TypeSimilar,
			Reasoning:  "Covers closely related topics",
		})
	}
	sortByScore(recs)
	if len(recs) > count {
		recs = recs[:count]
	}
	return recs
}

// popularitySignal suggests the most-viewed documents, scaled against the
// corpus maximum.
func (r *Recommender) popularitySignal(snap *index.Snapshot, doc *content.Document, count int) []Recommendation {
	var maxViews int64
	for _, id := range snap.DocIDs {
		if v := snap.Document(id).Views; v > maxViews {
			maxViews = v
		}
	}
	if maxViews == 0 {
		return nil
	}
	recs := make([]Recommendation, 0, count)
	for _, id := range snap.DocIDs {
		other := snap.Document(id)
		if id == doc.ID || other.Views == 0 {
			continue
		}
		recs = append(recs, Recommendation{
			DocumentID: id,
			Score:      float64(other.Views) / float64(maxViews),
			Type:       TypePopular,
			Reasoning:  "Popular with other readers",
		})
	}
	sortByScore(recs)
	if len(recs) > count {
		recs = recs[:count]
	}
	return recs
}

// sortByScore orders candidates by descending score with ID tie-breaks.
func sortByScore(recs []Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].DocumentID < recs[j].DocumentID
	})
}
