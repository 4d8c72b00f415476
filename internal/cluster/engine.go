package cluster

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
)

// Competitive-strength blend. Popularity is log-scaled so a handful of
// viral posts cannot saturate the score; the quality proxy rewards
// substantial write-ups.
const (
	strengthViewWeight    = 0.6
	strengthQualityWeight = 0.4
	viewScaleCeiling      = 10000
	qualityWordCeiling    = 1500
)

// Options tunes cluster generation.
type Options struct {
	// SimilarityThreshold is the minimum pairwise score for the semantic
	// strategy. Zero means the default of 0.3.
	SimilarityThreshold float64
}

const defaultSimilarityThreshold = 0.3

// Engine generates optimized topic clusters from an index snapshot. It is
// constructed once by the host application and holds no hidden global state.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine creates a clustering engine.
func NewEngine(opts Options) *Engine {
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = defaultSimilarityThreshold
	}
	return &Engine{
		opts:   opts,
		logger: slog.Default().With("component", "cluster-engine"),
	}
}

// Generate runs all four candidate strategies and the optimization pass.
// It returns the optimized clusters together with the similarity graph so
// callers can reuse the graph for link generation. A corpus of fewer than
// two documents yields no clusters and no error.
func (e *Engine) Generate(ctx context.Context, snap *index.Snapshot) ([]TopicCluster, *Graph, error) {
	graph, err := BuildGraph(ctx, snap)
	if err != nil {
		return nil, nil, err
	}
	if snap.DocCount() < 2 {
		return []TopicCluster{}, graph, nil
	}

	candidates := geographicCandidates(snap)
	candidates = append(candidates, activityCandidates(snap)...)
	candidates = append(candidates, contentTypeCandidates(snap)...)
	candidates = append(candidates, semanticCandidates(snap, graph, e.opts.SimilarityThreshold)...)

	scored := make([]TopicCluster, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, e.score(snap, graph, c))
	}
	optimized := optimize(scored, graph)

	e.logger.Info("clusters generated",
		"candidates", len(candidates),
		"clusters", len(optimized),
		"threshold", e.opts.SimilarityThreshold,
	)
	return optimized, graph, nil
}

// score fills in coherence, competitive strength, centroid, and keywords
// for a candidate.
func (e *Engine) score(snap *index.Snapshot, graph *Graph, c candidate) TopicCluster {
	members := append([]string(nil), c.members...)
	sort.Strings(members)
	return TopicCluster{
		ID:                  c.id,
		Name:                c.name,
		Description:         c.description,
		Strategy:            c.strategy,
		Members:             members,
		Keywords:            clusterKeywords(snap, members),
		CentroidID:          centroid(graph, members),
		Coherence:           coherence(graph, members),
		CompetitiveStrength: competitiveStrength(snap, members),
	}
}

// optimize resolves overlapping candidates: clusters are ranked by
// coherence + competitive strength, each keeps only members no
// higher-ranked cluster claimed, and clusters shrinking below their
// strategy's minimum are discarded. Coherence and centroid are recomputed
// over the surviving members. Afterwards every document ID appears in at
// most one cluster.
func optimize(clusters []TopicCluster, graph *Graph) []TopicCluster {
	ranked := append([]TopicCluster(nil), clusters...)
	sort.Slice(ranked, func(i, j int) bool {
		a := ranked[i].Coherence + ranked[i].CompetitiveStrength
		b := ranked[j].Coherence + ranked[j].CompetitiveStrength
		if a != b {
			return a > b
		}
		return ranked[i].ID < ranked[j].ID
	})

	claimed := make(map[string]struct{})
	result := make([]TopicCluster, 0, len(ranked))
	for _, cl := range ranked {
		keep := make([]string, 0, len(cl.Members))
		for _, id := range cl.Members {
			if _, taken := claimed[id]; !taken {
				keep = append(keep, id)
			}
		}
		if len(keep) < minClusterSize[cl.Strategy] {
			continue
		}
		for _, id := range keep {
			claimed[id] = struct{}{}
		}
		cl.Members = keep
		cl.Coherence = coherence(graph, keep)
		cl.CentroidID = centroid(graph, keep)
		result = append(result, cl)
	}
	return result
}

// coherence is the mean pairwise similarity among members, 1.0 for
// singleton or empty clusters.
func coherence(graph *Graph, members []string) float64 {
	if len(members) < 2 {
		return 1.0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += graph.Score(members[i], members[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// centroid picks the member with the highest mean similarity to the rest,
// breaking ties by ID.
func centroid(graph *Graph, members []string) string {
	if len(members) == 0 {
		return ""
	}
	best := members[0]
	bestScore := -1.0
	for _, id := range members {
		var sum float64
		for _, other := range members {
			if other != id {
				sum += graph.Score(id, other)
			}
		}
		mean := 0.0
		if len(members) > 1 {
			mean = sum / float64(len(members)-1)
		}
		if mean > bestScore || (mean == bestScore && id < best) {
			best = id
			bestScore = mean
		}
	}
	return best
}

// competitiveStrength blends log-scaled mean views with a content-length
// quality proxy, clamped to [0,1].
func competitiveStrength(snap *index.Snapshot, members []string) float64 {
	if len(members) == 0 {
		return 0
	}
	var totalViews, totalWords float64
	for _, id := range members {
		doc := snap.Document(id)
		if doc == nil {
			continue
		}
		totalViews += float64(doc.Views)
		totalWords += float64(doc.WordCount())
	}
	meanViews := totalViews / float64(len(members))
	meanWords := totalWords / float64(len(members))

	viewScore := math.Log1p(meanViews) / math.Log1p(viewScaleCeiling)
	if viewScore > 1 {
		viewScore = 1
	}
	quality := meanWords / qualityWordCeiling
	if quality > 1 {
		quality = 1
	}
	return strengthViewWeight*viewScore + strengthQualityWeight*quality
}

// clusterKeywords aggregates member keywords and returns up to ten of the
// most frequent, frequency-ranked with lexicographic tie-breaks.
func clusterKeywords(snap *index.Snapshot, members []string) []string {
	counts := make(map[string]int)
	for _, id := range members {
		for _, kw := range snap.Keywords(id) {
			counts[kw]++
		}
	}
	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return keywords
}
