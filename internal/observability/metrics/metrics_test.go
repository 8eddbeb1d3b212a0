package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("status", "warning"),
		attribute.String("operator", "OP-001"),
		attribute.String("serial_number", "SN-42"),
		attribute.String("endpoint", "/api/plans/:id/features/:feature_id/measurements"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("status"), attrs[0].Key)
	assert.Equal(t, attribute.Key("endpoint"), attrs[1].Key)
}

func TestRecordMeasurementCountsByStatus(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "spacial-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordMeasurement(ctx, "in_spec")
	m.RecordMeasurement(ctx, "in_spec")
	m.RecordMeasurement(ctx, "out_of_spec")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	counts := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, md := range scope.Metrics {
			if md.Name != "spacial_measurements_recorded_total" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				counts[status.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), counts["in_spec"])
	assert.Equal(t, int64(1), counts["out_of_spec"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordMeasurement(context.Background(), "warning")
		m.RecordEvaluation(context.Background(), "ok")
		m.RecordReport(context.Background(), "pdf")
		m.RecordRateLimitDenied(context.Background(), "/x", "limit")
	})
}
