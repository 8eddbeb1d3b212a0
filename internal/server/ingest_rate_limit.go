package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/spacial/internal/observability/context"
	"github.com/smallbiznis/spacial/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/spacial/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	rateLimitReasonOperatorRate      = "operator-rate"
	rateLimitReasonSerialConcurrency = "serial-concurrency"
)

type ingestRateLimitKey struct {
	SerialNumber string `json:"serial_number"`
	Operator     string `json:"operator"`
}

// IngestRateLimit throttles measurement capture per operator and holds a
// short lock on (plan, feature, serial) while the request is in flight.
func (s *Server) IngestRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.ingestLimiter.Enabled() {
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		key, err := readIngestKey(c)
		if err != nil {
			logger.FromContext(ctx).Warn("ingest rate limit read body failed", zap.Error(err))
			AbortWithError(c, invalidRequestError())
			return
		}
		operator := key.Operator
		if operator == "" {
			operator = obscontext.OperatorFromContext(ctx)
		}

		result, err := s.ingestLimiter.AllowOperator(ctx, operator)
		if err != nil {
			logger.FromContext(ctx).Warn("ingest operator rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			denyIngestRateLimit(c, endpoint, rateLimitReasonOperatorRate, retryAfter, s.obsMetrics)
			return
		}

		planID, featureID := c.Param("id"), c.Param("feature_id")
		if key.SerialNumber != "" {
			token, locked, err := s.ingestLimiter.TryLockSerial(ctx, planID, featureID, key.SerialNumber)
			if err != nil {
				logger.FromContext(ctx).Warn("ingest serial lock failed", zap.Error(err))
				AbortWithError(c, ErrServiceUnavailable)
				return
			}
			if !locked {
				denyIngestRateLimit(c, endpoint, rateLimitReasonSerialConcurrency, 1, s.obsMetrics)
				return
			}
			defer func() {
				if err := s.ingestLimiter.ReleaseSerial(ctx, planID, featureID, key.SerialNumber, token); err != nil {
					logger.FromContext(ctx).Warn("ingest serial unlock failed", zap.Error(err))
				}
			}()
		}

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Next()
	}
}

func denyIngestRateLimit(c *gin.Context, endpoint, reason string, retryAfter int, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("ingest rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, reason, metrics)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

// readIngestKey peeks at the body and restores it for the handler. A body
// that is not JSON yields an empty key and is rejected later by binding.
func readIngestKey(c *gin.Context) (ingestRateLimitKey, error) {
	var payload ingestRateLimitKey
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return payload, err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ingestRateLimitKey{}, nil
	}
	payload.SerialNumber = strings.TrimSpace(payload.SerialNumber)
	payload.Operator = strings.TrimSpace(payload.Operator)
	return payload, nil
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
