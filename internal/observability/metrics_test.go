package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.ObserveHTTP(http.MethodPost, "/api/generate-chunk/:chunkId", 200, 30*time.Millisecond)
	c.ObserveHTTP(http.MethodPost, "/api/generate-chunk/:chunkId", 200, 50*time.Millisecond)
	c.ObserveProviderCall("openai", "chunk_food", "error", time.Second)
	c.IncFallback("trip_plan")
	c.ObserveCacheLookup(true)
	c.ObserveCacheLookup(false)
	c.ObserveCacheLookup(false)

	body := scrape(t, c)
	assert.Contains(t, body, `voyage_http_requests_total{method="POST",route="/api/generate-chunk/:chunkId",status="200"} 2`)
	assert.Contains(t, body, `voyage_ai_provider_calls_total{outcome="error",provider="openai",task="chunk_food"} 1`)
	assert.Contains(t, body, `voyage_ai_mock_fallbacks_total{task="trip_plan"} 1`)
	assert.Contains(t, body, `voyage_image_cache_lookups_total{result="miss"} 2`)
	assert.Contains(t, body, `voyage_image_cache_lookups_total{result="hit"} 1`)
}

func TestCollectorHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.IncFallback("destinations")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `voyage_ai_mock_fallbacks_total{task="destinations"} 1`)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveHTTP("GET", "/", 200, time.Millisecond)
		c.ObserveProviderCall("mock", "manifest", "ok", time.Millisecond)
		c.IncFallback("manifest")
		c.ObserveCacheLookup(true)
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
