// Package links derives ranked cross-document link suggestions from the
// optimized cluster set and the similarity graph.
package links

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
)

// Link origins.
const (
	OriginCluster    = "cluster"
	OriginHub        = "hub"
	OriginEntity     = "entity"
	OriginGeographic = "geographic"
)

// Placement hints for the rendering layer.
const (
	PlacementInline       = "inline"
	PlacementRelatedPosts = "related-posts"
)

const (
	hubLinkRelevance    = 0.8
	pairwiseThreshold   = 0.3
	maxTotalLinks       = 500
	linksPerDocumentCap = 5
)

// Link is one suggested internal link between two documents.
type Link struct {
	FromID    string  `json:"fromId"`
	ToID      string  `json:"toId"`
	Anchor    string  `json:"anchor"`
	Relevance float64 `json:"relevance"`
	Origin    string  `json:"origin"`
	Placement string  `json:"placement"`
}

// Generator builds link suggestions from clusters and similarity scores.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a link generator.
func NewGenerator() *Generator {
	return &Generator{
		logger: slog.Default().With("component", "link-generator"),
	}
}

// Generate produces two link families per cluster: pairwise links between
// members whose similarity clears the threshold, and hub-and-spoke links
// from the centroid to every other member. Links are deduplicated by
// (from, to), sorted by descending relevance, and capped at
// min(500, documentCount x 5).
func (g *Generator) Generate(snap *index.Snapshot, clusters []cluster.TopicCluster, graph *cluster.Graph) []Link {
	seen := make(map[[2]string]struct{})
	links := make([]Link, 0)

	add := func(l Link) {
		if l.FromID == l.ToID {
			return
		}
		key := [2]string{l.FromID, l.ToID}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		links = append(links, l)
	}

	for _, cl := range clusters {
		for i := 0; i < len(cl.Members); i++ {
			for j := i + 1; j < len(cl.Members); j++ {
				a, b := cl.Members[i], cl.Members[j]
				score := graph.Score(a, b)
				if score < pairwiseThreshold {
					continue
				}
				add(g.pairwiseLink(snap, a, b, score))
				add(g.pairwiseLink(snap, b, a, score))
			}
		}
		if cl.CentroidID == "" {
			continue
		}
		for _, member := range cl.Members {
			if member == cl.CentroidID {
				continue
			}
			add(g.hubLink(snap, cl.CentroidID, member))
		}
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].Relevance != links[j].Relevance {
			return links[i].Relevance > links[j].Relevance
		}
		if links[i].FromID != links[j].FromID {
			return links[i].FromID < links[j].FromID
		}
		return links[i].ToID < links[j].ToID
	})

	limit := maxTotalLinks
	if byCorpus := snap.DocCount() * linksPerDocumentCap; byCorpus < limit {
		limit = byCorpus
	}
	if len(links) > limit {
		links = links[:limit]
	}
	g.logger.Info("internal links generated", "links", len(links), "clusters", len(clusters))
	return links
}

func (g *Generator) pairwiseLink(snap *index.Snapshot, fromID, toID string, score float64) Link {
	return Link{
		FromID:    fromID,
		ToID:      toID,
		Anchor:    anchorFor(snap, toID),
		Relevance: score,
		Origin:    OriginCluster,
		Placement: PlacementRelatedPosts,
	}
}

func (g *Generator) hubLink(snap *index.Snapshot, fromID, toID string) Link {
	return Link{
		FromID:    fromID,
		ToID:      toID,
		Anchor:    anchorFor(snap, toID),
		Relevance: hubLinkRelevance,
		Origin:    OriginHub,
		Placement: PlacementInline,
	}
}

// anchorFor uses the target document's title as anchor text.
func anchorFor(snap *index.Snapshot, docID string) string {
	if doc := snap.Document(docID); doc != nil {
		return doc.Title
	}
	return fmt.Sprintf("Read more: %s", docID)
}
