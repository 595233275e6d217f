package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New(false)
	c.Build(true)
	c.Build(true)
	c.Build(false)
	c.CacheLookup("hit")
	c.CacheLookup("stale")
	c.CacheStoreFailed()
	c.Reload(false)
	c.ObserveCompile(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.builds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.builds.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storeFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reloads.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.compile))

	expected := `
# HELP shadersmith_cache_store_failures_total Cache writes that failed and were skipped.
# TYPE shadersmith_cache_store_failures_total counter
shadersmith_cache_store_failures_total 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "shadersmith_cache_store_failures_total"))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Build(true)
	c.CacheLookup("miss")
	c.CacheStoreFailed()
	c.Reload(true)
	c.ObserveCompile(time.Second)
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandlerServesMetrics(t *testing.T) {
	c := New(true)
	c.Build(true)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `shadersmith_builds_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
