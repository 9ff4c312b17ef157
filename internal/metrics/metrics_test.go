package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"PremiumSentinel/internal/model"
)

func TestSetRegimeIsOneHot(t *testing.T) {
	r := New()
	r.SetRegime("vix", model.Yellow)
	r.SetRegime("vix", model.Red)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.RegimeColor.WithLabelValues("vix", "red")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RegimeColor.WithLabelValues("vix", "yellow")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.RegimeColor.WithLabelValues("vix", "green")))
}

func TestCounters(t *testing.T) {
	r := New()
	r.ProviderError("yahoo", "chain")
	r.ProviderError("yahoo", "chain")
	r.CacheHit("quotes")
	r.CacheMiss("chain")
	r.SetGreenContracts("SQQQ", 4)
	r.ObserveRefresh(2*time.Second, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ProviderErrors.WithLabelValues("yahoo", "chain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheHits.WithLabelValues("quotes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheMisses.WithLabelValues("chain")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.GreenContracts.WithLabelValues("SQQQ")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.RefreshDuration))
}

func TestNilRegistryIsInert(t *testing.T) {
	var r *Registry
	r.ProviderError("yahoo", "quotes")
	r.SetRegime("vix", model.Green)
	r.ObserveRefresh(time.Second, true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	r := New()
	r.CacheHit("quotes")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `premium_sentinel_cache_hits_total{kind="quotes"} 1`)
}
