// Package context carries request-scoped correlation values used by logs and spans.
package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type operatorKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithOperator records the operator identifier submitted with a measurement.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, strings.TrimSpace(operator))
}

func OperatorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(operatorKey{}).(string); ok {
		return v
	}
	return ""
}
