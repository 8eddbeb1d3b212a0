package pdf

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSPCReport(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	report := SPCReport{
		ReportNumber: NewReportNumber(at),
		GeneratedAt:  at,
		ProductCode:  "AX-900",
		ProductName:  "Axle bracket",
		PlanName:     "Final inspection",
		FeatureName:  "Bore diameter",
		Unit:         "mm",
		Target:       "100.000",
		USL:          "110.000",
		LSL:          "90.000",
		Mean:         "100.000",
		StdDev:       "1.000",
		Cpk:          "3.33",
		OutOfSpec:    "0/3",
		Rows: []SPCReportRow{
			{Index: 0, SerialNumber: "SN-1", Value: "99.000", Status: "in_spec", Operator: "OP-1", Timestamp: at.Format(time.RFC3339)},
			{Index: 1, SerialNumber: "SN-2", Value: "108.000", Status: "warning", Operator: "OP-1", Timestamp: at.Format(time.RFC3339)},
		},
	}

	r, err := New().GenerateSPCReport(context.Background(), report)
	require.NoError(t, err)

	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "%PDF"))
}

func TestGenerateSPCReport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().GenerateSPCReport(ctx, SPCReport{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportNumberAndFilename(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	number := NewReportNumber(at)
	assert.True(t, strings.HasPrefix(number, "SPC-"))
	assert.Len(t, number, len("SPC-")+26)

	assert.Equal(t, "spc-ax-900-final-inspection-bore-diameter-20260302.pdf",
		Filename("AX-900", "Final inspection", "Bore diameter", at))
}
