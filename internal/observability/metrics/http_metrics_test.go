package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m := NewHTTPMetricsWith(registry)

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/plans/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/plans/1", "/api/plans/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	families, err := registry.Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != "spacial_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelValue(metric, "route") == "/api/plans/:id" && labelValue(metric, "status_code") == "200" {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, total)
}

func TestNewHTTPMetricsWithReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewHTTPMetricsWith(registry)
	second := NewHTTPMetricsWith(registry)
	assert.Same(t, first.requests, second.requests)
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}
