package index

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/errors"
)

func testCorpus() []content.Document {
	return []content.Document{
		{
			ID:      "bangkok-street-food",
			Title:   "Bangkok Street Food Guide",
			Excerpt: "Eating through the markets of Bangkok",
			Content: "Bangkok street food ranges from grilled satay stalls to boat noodles. Markets open late and the food keeps coming.",
			Tags:    []string{"thailand", "food"},
			Entities: []content.Entity{
				{Name: "Bangkok", Type: "location", Confidence: 0.98},
				{Name: "Chatuchak Market", Type: "place", Confidence: 0.91},
			},
			Location:    "Bangkok",
			Country:     "Thailand",
			Cluster:     "thailand-travel",
			PublishedAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Views:       4200,
		},
		{
			ID:      "chiang-mai-temples",
			Title:   "Temples of Chiang Mai",
			Excerpt: "A walking tour of the old city temples",
			Content: "Chiang Mai packs dozens of temples inside its old city walls. After temple hopping the night markets serve the best street food in northern Thailand.",
			Tags:    []string{"thailand", "culture"},
			Entities: []content.Entity{
				{Name: "Chiang Mai", Type: "location", Confidence: 0.97},
				{Name: "Doi Suthep", Type: "place", Confidence: 0.9},
			},
			Location:    "Chiang Mai",
			Country:     "Thailand",
			Cluster:     "thailand-travel",
			PublishedAt: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
			Views:       2800,
		},
		{
			ID:      "medellin-coffee",
			Title:   "Coffee Farms Around Medellin",
			Excerpt: "Touring the coffee hills of Antioquia",
			Content: "Medellin sits close to some of the best coffee farms in Colombia. The hills produce beans with bright acidity.",
			Tags:    []string{"colombia", "coffee"},
			Entities: []content.Entity{
				{Name: "Medellin", Type: "location", Confidence: 0.96},
			},
			Location:    "Medellin",
			Country:     "Colombia",
			Cluster:     "colombia-travel",
			PublishedAt: time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC),
			Views:       1300,
		},
	}
}

func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := Build(context.Background(), testCorpus(), BuildOptions{})
	require.NoError(t, err)
	return snap
}

func TestBuildSortsDocIDs(t *testing.T) {
	snap := buildTestSnapshot(t)
	assert.Equal(t, []string{"bangkok-street-food", "chiang-mai-temples", "medellin-coffee"}, snap.DocIDs)
	assert.Equal(t, 3, snap.DocCount())
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	docs := testCorpus()
	docs = append(docs, docs[0])
	_, err := Build(context.Background(), docs, BuildOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate document ID")
}

func TestBuildRejectsMissingID(t *testing.T) {
	_, err := Build(context.Background(), []content.Document{{Title: "untitled"}}, BuildOptions{})
	require.Error(t, err)
}

func TestTermFrequencyIsLengthNormalised(t *testing.T) {
	snap := buildTestSnapshot(t)
	for _, id := range snap.DocIDs {
		var sum float64
		for _, term := range snap.Vocabulary() {
			sum += snap.TermFrequency(id, term)
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "term frequencies of %s should sum to 1", id)
	}
}

func TestIDFIsZeroOnlyForUbiquitousTerms(t *testing.T) {
	snap := buildTestSnapshot(t)
	// "bangkok" appears in one document out of three.
	assert.InDelta(t, math.Log(3), snap.IDF("bangkok"), 1e-9)
	// Unknown terms carry zero IDF.
	assert.Zero(t, snap.IDF("zanzibar"))
	for _, term := range snap.Vocabulary() {
		assert.GreaterOrEqual(t, snap.IDF(term), 0.0, "idf(%s) must not be negative", term)
	}
}

func TestIDFZeroForUbiquitousTerm(t *testing.T) {
	snap, err := Build(context.Background(), []content.Document{
		{ID: "a", Content: "temple markets sunrise"},
		{ID: "b", Content: "temple beaches sunset"},
	}, BuildOptions{})
	require.NoError(t, err)
	// "temple" appears in every document, so it carries no weight.
	assert.Zero(t, snap.IDF("temple"))
	assert.Greater(t, snap.IDF("sunrise"), 0.0)
}

func TestVectorsAreUnitLengthOrZero(t *testing.T) {
	snap := buildTestSnapshot(t)
	for _, id := range snap.DocIDs {
		var sumSquares float64
		for _, w := range snap.Vector(id) {
			sumSquares += w * w
		}
		magnitude := math.Sqrt(sumSquares)
		if magnitude != 0 {
			assert.InDelta(t, 1.0, magnitude, 1e-9, "vector of %s", id)
		}
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	snap := buildTestSnapshot(t)
	for _, a := range snap.DocIDs {
		assert.InDelta(t, 1.0, snap.CosineSimilarity(a, a), 1e-9)
		for _, b := range snap.DocIDs {
			sim := snap.CosineSimilarity(a, b)
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0+1e-9)
		}
	}
	assert.Zero(t, snap.CosineSimilarity("bangkok-street-food", "no-such-doc"))
}

func TestThaiPostsMoreSimilarThanCrossCountry(t *testing.T) {
	snap := buildTestSnapshot(t)
	thai := snap.CosineSimilarity("bangkok-street-food", "chiang-mai-temples")
	cross := snap.CosineSimilarity("bangkok-street-food", "medellin-coffee")
	assert.Greater(t, thai, cross)
}

func TestKeywordsCappedAndRanked(t *testing.T) {
	snap, err := Build(context.Background(), testCorpus(), BuildOptions{KeywordsPerDocument: 3})
	require.NoError(t, err)
	for _, id := range snap.DocIDs {
		kw := snap.Keywords(id)
		assert.LessOrEqual(t, len(kw), 3)
		assert.NotEmpty(t, kw)
	}
}

func TestAuxiliaryIndexesNormaliseKeys(t *testing.T) {
	snap := buildTestSnapshot(t)

	assert.Equal(t, []string{"bangkok-street-food"}, snap.DocsByEntity("BANGKOK"))
	assert.Equal(t, []string{"bangkok-street-food"}, snap.DocsByEntity("chatuchak market"))
	assert.Empty(t, snap.DocsByEntity("tokyo"))

	// Location index holds both city and country keys.
	assert.Equal(t, []string{"medellin-coffee"}, snap.DocsByLocation("Medellin"))
	assert.Equal(t,
		[]string{"bangkok-street-food", "chiang-mai-temples"},
		snap.DocsByLocation("thailand"))

	// Cluster index holds cluster names and tags.
	assert.Equal(t,
		[]string{"bangkok-street-food", "chiang-mai-temples"},
		snap.DocsByCluster("thailand-travel"))
	assert.Equal(t, []string{"medellin-coffee"}, snap.DocsByCluster("coffee"))
}

func TestBuildIsDeterministic(t *testing.T) {
	first := buildTestSnapshot(t)
	for i := 0; i < 3; i++ {
		again := buildTestSnapshot(t)
		assert.Equal(t, first.DocIDs, again.DocIDs)
		assert.Equal(t, first.Vocabulary(), again.Vocabulary())
		for _, id := range first.DocIDs {
			assert.Equal(t, first.Vector(id), again.Vector(id))
			assert.Equal(t, first.Keywords(id), again.Keywords(id))
		}
		assert.Equal(t, first.EntityKeys(), again.EntityKeys())
		assert.Equal(t, first.LocationKeys(), again.LocationKeys())
		assert.Equal(t, first.ClusterKeys(), again.ClusterKeys())
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	snap, err := Build(context.Background(), nil, BuildOptions{})
	require.NoError(t, err)
	assert.Zero(t, snap.DocCount())
	assert.Empty(t, snap.Vocabulary())
}

func TestEngineNotReadyBeforeFirstRebuild(t *testing.T) {
	engine := NewEngine(BuildOptions{})
	assert.False(t, engine.Ready())
	_, err := engine.Snapshot()
	require.ErrorIs(t, err, errors.ErrEngineNotReady)
}

func TestEnginePublishesSnapshotAtomically(t *testing.T) {
	engine := NewEngine(BuildOptions{})
	snap, err := engine.Rebuild(context.Background(), testCorpus())
	require.NoError(t, err)
	require.True(t, engine.Ready())

	current, err := engine.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, current)

	// A failed rebuild must leave the previous snapshot in place.
	docs := testCorpus()
	docs = append(docs, docs[0])
	_, err = engine.Rebuild(context.Background(), docs)
	require.Error(t, err)
	after, err := engine.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, after)
}
