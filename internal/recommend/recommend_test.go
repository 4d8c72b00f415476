package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/errors"
)

func recommendCorpus() []content.Document {
	return []content.Document{
		{
			ID:      "bangkok-street-food",
			Title:   "Bangkok Street Food Guide",
			Content: "Bangkok street food ranges from satay stalls to boat noodles.",
			Tags:    []string{"thailand", "food"},
			Entities: []content.Entity{
				{Name: "Bangkok", Type: "location"},
				{Name: "Chatuchak Market", Type: "place"},
			},
			Location:    "Bangkok",
			Country:     "Thailand",
			PublishedAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Views:       4200,
		},
		{
			ID:      "bangkok-temples",
			Title:   "Temple Hopping in Bangkok",
			Content: "Bangkok temples range from Wat Pho to quiet neighbourhood shrines.",
			Tags:    []string{"thailand", "culture"},
			Entities: []content.Entity{
				{Name: "Bangkok", Type: "location"},
				{Name: "Wat Pho", Type: "place"},
			},
			Location:    "Bangkok",
			Country:     "Thailand",
			PublishedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			Views:       3100,
		},
		{
			ID:      "chiang-mai-markets",
			Title:   "Night Markets of Chiang Mai",
			Content: "Chiang Mai night markets serve street food across northern Thailand.",
			Tags:    []string{"thailand", "food"},
			Entities: []content.Entity{
				{Name: "Chiang Mai", Type: "location"},
			},
			Location:    "Chiang Mai",
			Country:     "Thailand",
			PublishedAt: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
			Views:       2800,
		},
		{
			ID:      "medellin-coffee",
			Title:   "Coffee Farms Around Medellin",
			Content: "Medellin sits close to the best coffee farms in Colombia.",
			Tags:    []string{"colombia", "coffee"},
			Entities: []content.Entity{
				{Name: "Medellin", Type: "location"},
			},
			Location:    "Medellin",
			Country:     "Colombia",
			PublishedAt: time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC),
			Views:       9000,
		},
	}
}

func newTestRecommender(t *testing.T) *Recommender {
	t.Helper()
	engine := index.NewEngine(index.BuildOptions{})
	_, err := engine.Rebuild(context.Background(), recommendCorpus())
	require.NoError(t, err)
	return New(engine)
}

func TestRecommendBeforeFirstBuild(t *testing.T) {
	r := New(index.NewEngine(index.BuildOptions{}))
	_, err := r.Recommend(context.Background(), "bangkok-street-food", 5)
	require.ErrorIs(t, err, errors.ErrEngineNotReady)
}

func TestRecommendUnknownDocument(t *testing.T) {
	r := newTestRecommender(t)
	_, err := r.Recommend(context.Background(), "no-such-post", 5)
	require.ErrorIs(t, err, errors.ErrDocumentNotFound)
}

func TestRecommendNeverIncludesSelf(t *testing.T) {
	r := newTestRecommender(t)
	for _, doc := range recommendCorpus() {
		recs, err := r.Recommend(context.Background(), doc.ID, 10)
		require.NoError(t, err)
		for _, rec := range recs {
			assert.NotEqual(t, doc.ID, rec.DocumentID)
		}
	}
}

func TestRecommendTruncatesAndSorts(t *testing.T) {
	r := newTestRecommender(t)
	recs, err := r.Recommend(context.Background(), "bangkok-street-food", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recs), 2)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score)
	}
}

func TestRecommendDefaultCount(t *testing.T) {
	r := newTestRecommender(t)
	recs, err := r.Recommend(context.Background(), "bangkok-street-food", 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recs), defaultCount)
	assert.NotEmpty(t, recs)
}

func TestRecommendMergesKeepingMaxScore(t *testing.T) {
	r := newTestRecommender(t)
	// bangkok-temples shares the location (geographic 0.9) and an entity with
	// the source document. The merged candidate must keep the highest score.
	recs, err := r.Recommend(context.Background(), "bangkok-street-food", 10)
	require.NoError(t, err)

	var found *Recommendation
	for i := range recs {
		if recs[i].DocumentID == "bangkok-temples" {
			found = &recs[i]
		}
	}
	require.NotNil(t, found, "same-city post should be recommended")
	assert.InDelta(t, sameLocationScore, found.Score, 1e-9)
	assert.Equal(t, TypeGeographic, found.Type)
}

func TestRecommendGeographicPrefersCityOverCountry(t *testing.T) {
	r := newTestRecommender(t)
	recs, err := r.Recommend(context.Background(), "bangkok-street-food", 10)
	require.NoError(t, err)

	scores := make(map[string]float64)
	for _, rec := range recs {
		scores[rec.DocumentID] = rec.Score
	}
	assert.Greater(t, scores["bangkok-temples"], scores["chiang-mai-markets"])
}

func TestClusterSignalUsesPublishedClusters(t *testing.T) {
	r := newTestRecommender(t)
	r.SetClusters([]cluster.TopicCluster{
		{
			ID:      "geo-southeast-asia",
			Name:    "Southeast Asia",
			Members: []string{"bangkok-street-food", "bangkok-temples", "chiang-mai-markets"},
		},
	})

	snap, err := r.engine.Snapshot()
	require.NoError(t, err)
	recs := r.clusterSignal(snap, snap.Document("bangkok-street-food"), 10)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, TypeCluster, rec.Type)
		assert.InDelta(t, clusterRelevance, rec.Score, 1e-9)
		assert.NotEqual(t, "bangkok-street-food", rec.DocumentID)
	}
}

func TestClusterSignalWithoutClusters(t *testing.T) {
	r := newTestRecommender(t)
	snap, err := r.engine.Snapshot()
	require.NoError(t, err)
	assert.Nil(t, r.clusterSignal(snap, snap.Document("bangkok-street-food"), 10))
}

func TestPopularitySignalScaling(t *testing.T) {
	r := newTestRecommender(t)
	snap, err := r.engine.Snapshot()
	require.NoError(t, err)

	recs := r.popularitySignal(snap, snap.Document("bangkok-street-food"), 10)
	require.NotEmpty(t, recs)
	// medellin-coffee has the corpus maximum views and leads with score 1.
	assert.Equal(t, "medellin-coffee", recs[0].DocumentID)
	assert.InDelta(t, 1.0, recs[0].Score, 1e-9)
	for _, rec := range recs {
		assert.LessOrEqual(t, rec.Score, 1.0)
		assert.Greater(t, rec.Score, 0.0)
	}
}

func TestSignalPanicIsIsolated(t *testing.T) {
	r := newTestRecommender(t)
	snap, err := r.engine.Snapshot()
	require.NoError(t, err)

	panicking := signal{name: "broken", run: func(*index.Snapshot, *content.Document, int) []Recommendation {
		panic("boom")
	}}
	recs := r.runIsolated(panicking, snap, snap.Document("bangkok-street-food"), 5)
	assert.Nil(t, recs)
}

func TestRecommendIsDeterministic(t *testing.T) {
	r := newTestRecommender(t)
	first, err := r.Recommend(context.Background(), "bangkok-street-food", 5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Recommend(context.Background(), "bangkok-street-food", 5)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
