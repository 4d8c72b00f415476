package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/search"
)

// fakeKV is an in-memory stand-in for the Redis client. failGets makes the
// next N Get calls miss even for present keys, to model an entry written by
// a concurrent flight between the outer check and the singleflight callback.
type fakeKV struct {
	data     map[string]string
	failGets int
}

var errKeyMissing = errors.New("key missing")

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.failGets > 0 {
		f.failGets--
		return "", errKeyMissing
	}
	v, ok := f.data[key]
	if !ok {
		return "", errKeyMissing
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.data[key] = string(value.([]byte))
	return nil
}

func (f *fakeKV) FlushByPattern(context.Context, string) (int64, error) {
	n := int64(len(f.data))
	f.data = map[string]string{}
	return n, nil
}

func newFakeCache(fake *fakeKV) *QueryCache {
	return &QueryCache{
		client: fake,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func TestBuildKeyNormalisesQuery(t *testing.T) {
	c := &QueryCache{}
	a := c.buildKey(search.Request{Query: "Street  Food"})
	b := c.buildKey(search.Request{Query: "street food"})
	assert.Equal(t, a, b, "whitespace and case must not change the cache key")
	assert.True(t, strings.HasPrefix(a, keyPrefix))
}

func TestBuildKeyDistinguishesRequests(t *testing.T) {
	c := &QueryCache{}
	base := search.Request{Query: "bangkok"}

	assert.NotEqual(t, c.buildKey(base), c.buildKey(search.Request{Query: "chiang mai"}))
	assert.NotEqual(t, c.buildKey(base), c.buildKey(search.Request{Query: "bangkok", Limit: 5}))
	assert.NotEqual(t, c.buildKey(base), c.buildKey(search.Request{Query: "bangkok", Sort: search.SortDate}))
	assert.NotEqual(t, c.buildKey(base), c.buildKey(search.Request{
		Query:   "bangkok",
		Filters: search.Filters{Language: "en"},
	}))
}

func TestStatsStartAtZero(t *testing.T) {
	c := &QueryCache{}
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestGetOrComputeCountsOneMissPerCompute(t *testing.T) {
	c := newFakeCache(&fakeKV{data: map[string]string{}})
	req := search.Request{Query: "bangkok"}

	computes := 0
	results, cached, err := c.GetOrCompute(context.Background(), req, func() ([]search.Result, error) {
		computes++
		return []search.Result{{DocumentID: "bangkok-street-food"}}, nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, computes)
	require.Len(t, results, 1)

	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.EqualValues(t, 1, misses)

	// Second call finds the entry written above.
	results, cached, err = c.GetOrCompute(context.Background(), req, func() ([]search.Result, error) {
		computes++
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, computes)
	assert.Equal(t, "bangkok-street-food", results[0].DocumentID)

	hits, misses = c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestGetOrComputeReportsLateHitAsCached(t *testing.T) {
	fake := &fakeKV{data: map[string]string{}}
	c := newFakeCache(fake)
	req := search.Request{Query: "chiang mai"}
	c.Set(context.Background(), req, []search.Result{{DocumentID: "chiang-mai-temples"}})

	// The outer check misses, the lookup inside the flight finds the entry.
	fake.failGets = 1
	results, cached, err := c.GetOrCompute(context.Background(), req, func() ([]search.Result, error) {
		t.Fatal("compute must not run when the flight finds a cached entry")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, results, 1)
	assert.Equal(t, "chiang-mai-temples", results[0].DocumentID)

	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.EqualValues(t, 1, misses)
}
