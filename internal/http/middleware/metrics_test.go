package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountsRequestsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/conversations/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/conversations/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/c1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	// Unmatched routes fall back to the raw path label.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/conversations/:id", "200")); got != baseOK+1 {
		t.Errorf("matched-route counter = %v, want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404")); got != base404+1 {
		t.Errorf("fallback-path counter = %v, want %v", got, base404+1)
	}
}

func TestTurnCounters(t *testing.T) {
	baseCompleted := testutil.ToFloat64(turnStreams.WithLabelValues("completed"))
	baseDeltas := testutil.ToFloat64(turnDeltas)

	CountTurnOutcome("completed")
	CountTurnDelta()
	CountTurnDelta()

	if got := testutil.ToFloat64(turnStreams.WithLabelValues("completed")); got != baseCompleted+1 {
		t.Errorf("turnStreams = %v, want %v", got, baseCompleted+1)
	}
	if got := testutil.ToFloat64(turnDeltas); got != baseDeltas+2 {
		t.Errorf("turnDeltas = %v, want %v", got, baseDeltas+2)
	}
}
