package tracing

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func TestSafeAttributesDropsOperatorInput(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/plans/:id/spc"),
		attribute.String("serial_number", "SN-0001"),
		attribute.String("operator", "OP-7"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorFlattensWrappedErrors(t *testing.T) {
	base := errors.New("not_found")
	wrapped := fmt.Errorf("lookup: %w", base)

	safe := SafeError(wrapped)
	assert.EqualError(t, safe, "lookup: not_found")
	assert.False(t, errors.Is(safe, base))
	assert.Nil(t, SafeError(nil))
}

func TestGinMiddlewareWithDisabledProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, provider)

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGinMiddlewareTagsPlanRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/plans/:id/features/:feature_id/spc", func(c *gin.Context) {
		_ = c.Error(errors.New("incomplete_binding"))
		c.Status(http.StatusUnprocessableEntity)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans/10/features/20/spc", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
