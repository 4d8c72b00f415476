// Package cluster groups documents into topic clusters. Four independent
// strategies (geographic, activity, content-type, semantic) propose
// candidate clusters; an optimization pass then ranks candidates and
// enforces that every document ends up in at most one cluster.
package cluster

// Strategy identifies which candidate generator produced a cluster.
type Strategy string

const (
	StrategyGeographic  Strategy = "geographic"
	StrategyActivity    Strategy = "activity"
	StrategyContentType Strategy = "content-type"
	StrategySemantic    Strategy = "semantic"
)

// minClusterSize is the per-strategy minimum member count, enforced both at
// candidate generation and again after optimization strips claimed members.
var minClusterSize = map[Strategy]int{
	StrategyGeographic:  2,
	StrategyActivity:    2,
	StrategyContentType: 3,
	StrategySemantic:    2,
}

// TopicCluster is one optimized topic cluster.
type TopicCluster struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Strategy    Strategy `json:"strategy"`
	// Members holds document IDs in sorted order. After optimization a
	// document ID appears in at most one cluster across the whole result.
	Members []string `json:"members"`
	// Keywords are the most frequent member keywords, for hub pages.
	Keywords []string `json:"keywords"`
	// CentroidID is the member with the highest mean similarity to the rest.
	CentroidID string `json:"centroidId"`
	// Coherence is the mean pairwise similarity among members in [0,1].
	Coherence float64 `json:"coherence"`
	// CompetitiveStrength blends popularity and a length-based quality
	// proxy, scaled to [0,1].
	CompetitiveStrength float64 `json:"competitiveStrength"`
	// HubPage optionally references an existing hub document.
	HubPage string `json:"hubPage,omitempty"`
}

// Edge is an unordered document pair with its similarity score in [0,1].
type Edge struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}
