// Package intel wires the content-intelligence components into one service:
// corpus loading, index rebuilds, cluster and link generation, cached
// search, and recommendations. The host application constructs a single
// Service and passes it by reference; there are no package-level singletons.
package intel

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content/store"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/links"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/recommend"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/search"
	searchcache "github.com/thetaroot/blog-luistravels-website-sub000/internal/search/cache"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/errors"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/kafka"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/metrics"
)

// RebuildEvent is published to Kafka after each successful rebuild.
type RebuildEvent struct {
	Documents  int       `json:"documents"`
	Clusters   int       `json:"clusters"`
	Links      int       `json:"links"`
	DurationMs int64     `json:"durationMs"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Service owns the engine and every derived structure. Reads are lock-free;
// rebuilds replace the index, cluster set, and link set atomically, in that
// order, so readers always see internally consistent data.
type Service struct {
	store       store.Store
	engine      *index.Engine
	searcher    *search.Searcher
	clusterer   *cluster.Engine
	linker      *links.Generator
	recommender *recommend.Recommender

	cache    *searchcache.QueryCache
	producer *kafka.Producer
	metrics  *metrics.Metrics
	logger   *slog.Logger

	rebuilding atomic.Bool
	clusters   atomic.Pointer[[]cluster.TopicCluster]
	linkSet    atomic.Pointer[[]links.Link]
}

// Options carries the optional collaborators.
type Options struct {
	Cache    *searchcache.QueryCache
	Producer *kafka.Producer
	Metrics  *metrics.Metrics
}

// New assembles a Service from its components.
func New(
	contentStore store.Store,
	engine *index.Engine,
	clusterer *cluster.Engine,
	opts Options,
) *Service {
	return &Service{
		store:       contentStore,
		engine:      engine,
		searcher:    search.New(engine),
		clusterer:   clusterer,
		linker:      links.NewGenerator(),
		recommender: recommend.New(engine),
		cache:       opts.Cache,
		producer:    opts.Producer,
		metrics:     opts.Metrics,
		logger:      slog.Default().With("component", "intel-service"),
	}
}

// Rebuild loads a full corpus snapshot and replaces every derived
// structure. Concurrent rebuild requests beyond the first are rejected
// with ErrRebuildInFlight.
func (s *Service) Rebuild(ctx context.Context) error {
	if !s.rebuilding.CompareAndSwap(false, true) {
		return errors.ErrRebuildInFlight
	}
	defer s.rebuilding.Store(false)

	start := time.Now()
	docs, err := s.store.LoadAll(ctx)
	if err != nil {
		s.countRebuild("error")
		return fmt.Errorf("loading corpus: %w", err)
	}

	snap, err := s.engine.Rebuild(ctx, docs)
	if err != nil {
		s.countRebuild("error")
		return fmt.Errorf("rebuilding index: %w", err)
	}

	clusters, graph, err := s.clusterer.Generate(ctx, snap)
	if err != nil {
		s.countRebuild("error")
		return fmt.Errorf("generating clusters: %w", err)
	}
	linkSet := s.linker.Generate(snap, clusters, graph)

	s.clusters.Store(&clusters)
	s.linkSet.Store(&linkSet)
	s.recommender.SetClusters(clusters)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("cache invalidation failed", "error", err)
		}
	}

	duration := time.Since(start)
	s.countRebuild("success")
	if s.metrics != nil {
		s.metrics.RebuildDuration.Observe(duration.Seconds())
		s.metrics.DocumentsIndexed.Set(float64(snap.DocCount()))
		s.metrics.VocabularySize.Set(float64(len(snap.Vocabulary())))
		s.metrics.TopicClusters.Set(float64(len(clusters)))
		s.metrics.InternalLinks.Set(float64(len(linkSet)))
	}
	s.logger.Info("rebuild complete",
		"documents", snap.DocCount(),
		"clusters", len(clusters),
		"links", len(linkSet),
		"duration", duration.Round(time.Millisecond),
	)

	if s.producer != nil {
		event := kafka.Event{
			Key: "index-complete",
			Value: RebuildEvent{
				Documents:  snap.DocCount(),
				Clusters:   len(clusters),
				Links:      len(linkSet),
				DurationMs: duration.Milliseconds(),
				FinishedAt: time.Now().UTC(),
			},
		}
		if err := s.producer.Publish(ctx, event); err != nil {
			s.logger.Warn("publishing rebuild event failed", "error", err)
		}
	}
	return nil
}

func (s *Service) countRebuild(status string) {
	if s.metrics != nil {
		s.metrics.RebuildsTotal.WithLabelValues(status).Inc()
	}
}

// Search runs a query through the cache (when configured) and the searcher.
// It reports whether the result came from cache.
func (s *Service) Search(ctx context.Context, req search.Request) ([]search.Result, bool, error) {
	start := time.Now()
	var (
		results  []search.Result
		cacheHit bool
		err      error
	)
	if s.cache != nil {
		results, cacheHit, err = s.cache.GetOrCompute(ctx, req, func() ([]search.Result, error) {
			return s.searcher.Search(ctx, req)
		})
	} else {
		results, err = s.searcher.Search(ctx, req)
	}
	if s.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
			s.metrics.CacheHitsTotal.Inc()
		} else {
			s.metrics.CacheMissesTotal.Inc()
		}
		s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		switch {
		case err != nil:
			s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		case len(results) == 0:
			s.metrics.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
		default:
			s.metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
			s.metrics.SearchResultsCount.Observe(float64(len(results)))
		}
	}
	return results, cacheHit, err
}

// Recommend proxies to the recommendation engine with latency metrics.
func (s *Service) Recommend(ctx context.Context, docID string, count int) ([]recommend.Recommendation, error) {
	start := time.Now()
	recs, err := s.recommender.Recommend(ctx, docID, count)
	if s.metrics != nil {
		s.metrics.RecommendLatency.Observe(time.Since(start).Seconds())
	}
	return recs, err
}

// Clusters returns the optimized cluster set from the latest rebuild.
func (s *Service) Clusters() ([]cluster.TopicCluster, error) {
	clusters := s.clusters.Load()
	if clusters == nil {
		return nil, errors.ErrEngineNotReady
	}
	return *clusters, nil
}

// Links returns the link suggestions from the latest rebuild.
func (s *Service) Links() ([]links.Link, error) {
	linkSet := s.linkSet.Load()
	if linkSet == nil {
		return nil, errors.ErrEngineNotReady
	}
	return *linkSet, nil
}

// CacheStats returns query cache hit/miss counters. enabled is false when
// no cache is configured.
func (s *Service) CacheStats() (hits, misses int64, enabled bool) {
	if s.cache == nil {
		return 0, 0, false
	}
	hits, misses = s.cache.Stats()
	return hits, misses, true
}

// Ready reports whether the first rebuild has completed.
func (s *Service) Ready() bool {
	return s.engine.Ready()
}
