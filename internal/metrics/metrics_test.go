package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector("test")
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}
	if c.Registry() == nil {
		t.Error("registry should not be nil")
	}
}

func TestNewCollector_Isolated(t *testing.T) {
	// Two collectors must not share a registry.
	a := NewCollector("")
	b := NewCollector("")

	a.CacheHit("dorm")
	if got := testutil.ToFloat64(b.cacheHits.WithLabelValues("dorm")); got != 0 {
		t.Errorf("second collector saw %v hits, want 0", got)
	}
}

func TestCollector_Requests(t *testing.T) {
	c := NewCollector("test")

	c.ObserveRequest("GET", "200", 10*time.Millisecond)
	c.ObserveRequest("GET", "200", 20*time.Millisecond)
	c.ObserveRequest("POST", "error", time.Millisecond)

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "200")); got != 2 {
		t.Errorf("GET 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "error")); got != 1 {
		t.Errorf("POST error = %v, want 1", got)
	}
}

func TestCollector_Cache(t *testing.T) {
	c := NewCollector("test")

	c.CacheHit("dorm")
	c.CacheMiss("dorm")
	c.CacheFetch("dorm", nil)
	c.CacheFetch("dorm", errors.New("boom"))
	c.CacheDiscard("expenses")
	c.SubscriptionOpened()
	c.SubscriptionOpened()
	c.SubscriptionClosed()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"hits", testutil.ToFloat64(c.cacheHits.WithLabelValues("dorm")), 1},
		{"misses", testutil.ToFloat64(c.cacheMisses.WithLabelValues("dorm")), 1},
		{"fetches", testutil.ToFloat64(c.cacheFetches.WithLabelValues("dorm")), 2},
		{"errors", testutil.ToFloat64(c.cacheErrors.WithLabelValues("dorm")), 1},
		{"discarded", testutil.ToFloat64(c.cacheDiscarded.WithLabelValues("expenses")), 1},
		{"subscriptions", testutil.ToFloat64(c.cacheSubscribed), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.CacheHit("profile")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_cache_hits_total{resource="profile"} 1`) {
		t.Errorf("exposition missing cache hit counter:\n%s", rec.Body.String())
	}
}
