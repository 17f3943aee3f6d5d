package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpstream("usda", "search", time.Now(), errors.New("x"))
		m.Fallback("none", "disabled")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := New()
	m.ObserveUpstream("usda", "search", time.Now(), nil)
	m.Fallback("huggingface", "error")

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/metrics", m.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `calorietrack_upstream_calls_total{collaborator="usda",operation="search",outcome="ok"} 1`)
	assert.Contains(t, body, `calorietrack_classifier_fallbacks_total{backend="huggingface",reason="error"} 1`)
	assert.Contains(t, body, `calorietrack_http_requests_total{method="GET",route="/ping",status="200"} 1`)
}
