package cluster

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
)

// Similarity blend weights. Keyword overlap dominates, with entity, tag,
// and location agreement contributing the rest.
const (
	weightKeywords = 0.4
	weightEntities = 0.3
	weightTags     = 0.2
	weightLocation = 0.1
)

// Graph holds the pairwise similarity scores of a corpus. Pairs are keyed
// with the lexicographically smaller ID first.
type Graph struct {
	scores map[pairKey]float64
}

type pairKey struct {
	a, b string
}

func orderedPair(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Score returns the similarity of the two documents, 0 if the pair is
// unknown or a == b is not stored.
func (g *Graph) Score(a, b string) float64 {
	return g.scores[orderedPair(a, b)]
}

// Edges returns every pair with score >= threshold, sorted by descending
// score with ID tie-breaks.
func (g *Graph) Edges(threshold float64) []Edge {
	edges := make([]Edge, 0)
	for key, score := range g.scores {
		if score >= threshold {
			edges = append(edges, Edge{A: key.a, B: key.b, Score: score})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Score != edges[j].Score {
			return edges[i].Score > edges[j].Score
		}
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

// BuildGraph computes the full pairwise similarity set for the snapshot.
// Pair computations are independent, so rows are processed in parallel.
func BuildGraph(ctx context.Context, snap *index.Snapshot) (*Graph, error) {
	ids := snap.DocIDs
	rows := make([]map[pairKey]float64, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make(map[pairKey]float64, len(ids)-i-1)
			for j := i + 1; j < len(ids); j++ {
				score := Similarity(snap, ids[i], ids[j])
				if score > 0 {
					row[orderedPair(ids[i], ids[j])] = score
				}
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("computing similarity graph: %w", err)
	}

	graph := &Graph{scores: make(map[pairKey]float64)}
	for _, row := range rows {
		for key, score := range row {
			graph.scores[key] = score
		}
	}
	return graph, nil
}

// Similarity blends keyword, entity, and tag Jaccard overlap with an exact
// location match into a score in [0,1]. Empty sets contribute 0, never NaN.
func Similarity(snap *index.Snapshot, aID, bID string) float64 {
	a, b := snap.Document(aID), snap.Document(bID)
	if a == nil || b == nil {
		return 0
	}
	score := weightKeywords * jaccard(toSet(snap.Keywords(aID)), toSet(snap.Keywords(bID)))
	score += weightEntities * jaccard(toSet(a.EntityNames()), toSet(b.EntityNames()))
	score += weightTags * jaccard(a.TagSet(), b.TagSet())
	if locationsMatch(a, b) {
		score += weightLocation
	}
	return score
}

// jaccard returns |a∩b| / |a∪b|, with 0 for two empty sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// locationsMatch reports an exact (case-insensitive) location match, falling
// back to country codes when neither document carries a location.
func locationsMatch(a, b *content.Document) bool {
	if a.Location != "" && b.Location != "" {
		return strings.EqualFold(a.Location, b.Location)
	}
	if a.Country != "" && b.Country != "" {
		return strings.EqualFold(a.Country, b.Country)
	}
	return false
}
