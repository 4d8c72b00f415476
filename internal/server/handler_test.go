package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/intel"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/health"
)

type fixedStore struct {
	docs []content.Document
}

func (f *fixedStore) LoadAll(ctx context.Context) ([]content.Document, error) {
	return f.docs, nil
}

func serverCorpus() []content.Document {
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
			Content:  "Chiang Mai night markets serve street food and snacks all evening.",
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

func newTestRouter(t *testing.T, rebuild bool) http.Handler {
	t.Helper()
	service := intel.New(
		&fixedStore{docs: serverCorpus()},
		index.NewEngine(index.BuildOptions{}),
		cluster.NewEngine(cluster.Options{}),
		intel.Options{},
	)
	if rebuild {
		require.NoError(t, service.Rebuild(context.Background()))
	}
	return NewRouter(New(service, 10, 100), health.NewChecker(), nil, 0)
}

func doRequest(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/search?q=bangkok")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "bangkok", body["query"])
	results := body["results"].([]any)
	require.NotEmpty(t, results)
	first := results[0].(map[string]any)
	assert.Equal(t, "bangkok-street-food", first["documentId"])
}

func TestSearchEndpointEmptyQuery(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/search?q=")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["results"])
}

func TestSearchEndpointBeforeIndexBuild(t *testing.T) {
	router := newTestRouter(t, false)
	rec := doRequest(t, router, http.MethodGet, "/search?q=bangkok")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchEndpointRejectsBadParams(t *testing.T) {
	router := newTestRouter(t, true)

	assert.Equal(t, http.StatusBadRequest,
		doRequest(t, router, http.MethodGet, "/search?q=x&sort=bogus").Code)
	assert.Equal(t, http.StatusBadRequest,
		doRequest(t, router, http.MethodGet, "/search?q=x&limit=-1").Code)
	assert.Equal(t, http.StatusBadRequest,
		doRequest(t, router, http.MethodGet, "/search?q=x&from=not-a-date").Code)
}

func TestSearchEndpointAppliesFilters(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/search?q=food&location=thailand")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, r := range decodeBody(t, rec)["results"].([]any) {
		id := r.(map[string]any)["documentId"].(string)
		assert.NotContains(t, []string{"medellin-coffee", "cartagena-old-town"}, id)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/recommendations/bangkok-street-food?count=3")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "bangkok-street-food", body["documentId"])
	recs := body["recommendations"].([]any)
	require.NotEmpty(t, recs)
	assert.LessOrEqual(t, len(recs), 3)
	for _, r := range recs {
		assert.NotEqual(t, "bangkok-street-food", r.(map[string]any)["documentId"])
	}
}

func TestRecommendationsEndpointUnknownDocument(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/recommendations/missing-post")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommendationsEndpointBadCount(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/recommendations/bangkok-street-food?count=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClustersEndpoint(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/clusters")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["clusters"])
}

func TestLinksEndpointBeforeIndexBuild(t *testing.T) {
	router := newTestRouter(t, false)
	rec := doRequest(t, router, http.MethodGet, "/links")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReindexEndpoint(t *testing.T) {
	router := newTestRouter(t, false)
	rec := doRequest(t, router, http.MethodPost, "/reindex")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCacheStatsEndpointDisabled(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disabled", decodeBody(t, rec)["status"])
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, true)
	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, http.MethodGet, "/readyz").Code)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	router := newTestRouter(t, true)
	rec := doRequest(t, router, http.MethodGet, "/clusters")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
