package spc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_SummaryDisplay(t *testing.T) {
	report, err := Evaluate(samplesOf(99, 100, 101), limits(100, 110, 90))
	require.NoError(t, err)

	series := Project(report)
	assert.Equal(t, ReferenceLines{Target: 100, USL: 110, LSL: 90}, series.Reference)
	assert.Equal(t, "100.000", series.Summary.Display.Mean)
	assert.Equal(t, "1.000", series.Summary.Display.StdDev)
	assert.Equal(t, "3.33", series.Summary.Display.Cpk)
	assert.Equal(t, "0/3", series.Summary.Display.OutOfSpec)
}

func TestProject_NotAvailable(t *testing.T) {
	report, err := Evaluate(samplesOf(100), limits(100, 110, 90))
	require.NoError(t, err)

	summary := Project(report).Summary
	assert.Nil(t, summary.StdDev)
	assert.Nil(t, summary.Cpk)
	assert.Equal(t, "N/A", summary.Display.StdDev)
	assert.Equal(t, "N/A", summary.Display.Cpk)
	assert.Equal(t, "0/1", summary.OutOfSpec)
}

func TestProject_Colors(t *testing.T) {
	report, err := Evaluate(samplesOf(100, 108, 115), limits(100, 110, 90))
	require.NoError(t, err)

	series := Project(report)
	assert.Equal(t, "green", series.Points[0].Color)
	assert.Equal(t, "orange", series.Points[1].Color)
	assert.Equal(t, "red", series.Points[2].Color)
}

func TestSeries_Recent(t *testing.T) {
	values := make([]float64, 0, 15)
	for i := 0; i < 15; i++ {
		values = append(values, 100+float64(i)*0.1)
	}
	report, err := Evaluate(samplesOf(values...), limits(100, 110, 90))
	require.NoError(t, err)
	series := Project(report)

	recent := series.Recent(0)
	require.Len(t, recent, DefaultRecentWindow)
	assert.Equal(t, 5, recent[0].Index)
	assert.Equal(t, 14, recent[len(recent)-1].Index)

	assert.Len(t, series.Recent(3), 3)
	assert.Len(t, series.Recent(50), 15)
	assert.Equal(t, 15, series.Summary.TotalCount)
}
