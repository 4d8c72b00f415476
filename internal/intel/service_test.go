package intel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/search"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/errors"
)

// memoryStore serves a fixed corpus, standing in for Postgres.
type memoryStore struct {
	docs []content.Document
	err  error
}

func (m *memoryStore) LoadAll(ctx context.Context) ([]content.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func intelCorpus() []content.Document {
	return []content.Document{
		{
			ID:       "bangkok-street-food",
			Title:    "Bangkok Street Food Guide",
			Content:  "Bangkok street food from satay stalls to boat noodles at every market.",
			Tags:     []string{"thailand", "food"},
			Location: "Bangkok",
			Country:  "TH",
			Views:    4200,
		},
		{
			ID:       "chiang-mai-markets",
			Title:    "Night Markets of Chiang Mai",
			Content:  "Chiang Mai night markets serve street food and market snacks all evening.",
			Tags:     []string{"thailand", "food"},
			Location: "Chiang Mai",
			Country:  "TH",
			Views:    2800,
		},
		{
			ID:       "medellin-coffee",
			Title:    "Coffee Farms Around Medellin",
			Content:  "Medellin sits close to the best coffee farms in Colombia.",
			Tags:     []string{"colombia", "coffee"},
			Location: "Medellin",
			Country:  "CO",
			Views:    1300,
		},
		{
			ID:       "cartagena-old-town",
			Title:    "Walking Cartagena's Old Town",
			Content:  "Cartagena's walled city holds centuries of history in Colombia.",
			Tags:     []string{"colombia"},
			Location: "Cartagena",
			Country:  "CO",
			Views:    900,
		},
	}
}

func newTestService(docs []content.Document) *Service {
	return New(
		&memoryStore{docs: docs},
		index.NewEngine(index.BuildOptions{}),
		cluster.NewEngine(cluster.Options{}),
		Options{},
	)
}

func TestServiceNotReadyBeforeRebuild(t *testing.T) {
	s := newTestService(intelCorpus())
	assert.False(t, s.Ready())

	_, err := s.Clusters()
	require.ErrorIs(t, err, errors.ErrEngineNotReady)
	_, err = s.Links()
	require.ErrorIs(t, err, errors.ErrEngineNotReady)
	_, _, err = s.Search(context.Background(), search.Request{Query: "bangkok"})
	require.ErrorIs(t, err, errors.ErrEngineNotReady)
}

func TestServiceRebuildPublishesEverything(t *testing.T) {
	s := newTestService(intelCorpus())
	require.NoError(t, s.Rebuild(context.Background()))
	assert.True(t, s.Ready())

	clusters, err := s.Clusters()
	require.NoError(t, err)
	assert.NotEmpty(t, clusters)

	linkSet, err := s.Links()
	require.NoError(t, err)
	assert.NotNil(t, linkSet)

	results, cacheHit, err := s.Search(context.Background(), search.Request{Query: "bangkok"})
	require.NoError(t, err)
	assert.False(t, cacheHit)
	require.NotEmpty(t, results)
	assert.Equal(t, "bangkok-street-food", results[0].DocumentID)

	recs, err := s.Recommend(context.Background(), "bangkok-street-food", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}

func TestServiceRebuildStoreFailure(t *testing.T) {
	s := New(
		&memoryStore{err: errors.ErrStoreUnavailable},
		index.NewEngine(index.BuildOptions{}),
		cluster.NewEngine(cluster.Options{}),
		Options{},
	)
	err := s.Rebuild(context.Background())
	require.ErrorIs(t, err, errors.ErrStoreUnavailable)
	assert.False(t, s.Ready())
}

func TestServiceRejectsConcurrentRebuilds(t *testing.T) {
	s := newTestService(intelCorpus())
	s.rebuilding.Store(true)
	err := s.Rebuild(context.Background())
	require.ErrorIs(t, err, errors.ErrRebuildInFlight)
	s.rebuilding.Store(false)
	require.NoError(t, s.Rebuild(context.Background()))
}

func TestServiceRebuildReplacesPreviousState(t *testing.T) {
	store := &memoryStore{docs: intelCorpus()}
	s := New(store, index.NewEngine(index.BuildOptions{}), cluster.NewEngine(cluster.Options{}), Options{})
	require.NoError(t, s.Rebuild(context.Background()))

	// Shrink the corpus below the clustering minimum and rebuild.
	store.docs = intelCorpus()[:1]
	require.NoError(t, s.Rebuild(context.Background()))

	clusters, err := s.Clusters()
	require.NoError(t, err)
	assert.Empty(t, clusters)

	results, _, err := s.Search(context.Background(), search.Request{Query: "medellin"})
	require.NoError(t, err)
	assert.Empty(t, results, "dropped documents must disappear from search")
}

func TestServiceCacheStatsDisabled(t *testing.T) {
	s := newTestService(intelCorpus())
	hits, misses, enabled := s.CacheStats()
	assert.False(t, enabled)
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestServiceRecommendUnknownDocument(t *testing.T) {
	s := newTestService(intelCorpus())
	require.NoError(t, s.Rebuild(context.Background()))
	_, err := s.Recommend(context.Background(), "missing", 3)
	require.ErrorIs(t, err, errors.ErrDocumentNotFound)
}
