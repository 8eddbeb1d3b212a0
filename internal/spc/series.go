package spc

import (
	"fmt"
	"time"
)

// DefaultRecentWindow is the number of trailing points shown in tabular views.
const DefaultRecentWindow = 10

const notAvailable = "N/A"

// SeriesPoint is one plotted marker.
type SeriesPoint struct {
	Index        int       `json:"index"`
	Value        float64   `json:"value"`
	Status       Status    `json:"status"`
	Color        string    `json:"color"`
	SerialNumber string    `json:"serial_number"`
	Operator     string    `json:"operator"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReferenceLines are the constant horizontal overlays of the chart.
type ReferenceLines struct {
	Target float64 `json:"target"`
	USL    float64 `json:"usl"`
	LSL    float64 `json:"lsl"`
}

// Display holds the summary formatted for operators.
type Display struct {
	Mean      string `json:"mean"`
	StdDev    string `json:"std_dev"`
	Cpk       string `json:"cpk"`
	OutOfSpec string `json:"out_of_spec"`
}

// Summary mirrors Statistics with the out-of-spec ratio rendered as "n/total".
type Summary struct {
	Mean           *float64 `json:"mean"`
	StdDev         *float64 `json:"std_dev"`
	Cpk            *float64 `json:"cpk"`
	OutOfSpec      string   `json:"out_of_spec"`
	OutOfSpecCount int      `json:"out_of_spec_count"`
	TotalCount     int      `json:"total_count"`
	Display        Display  `json:"display"`
}

// Series is the renderable form of a Report.
type Series struct {
	Points    []SeriesPoint  `json:"points"`
	Reference ReferenceLines `json:"reference"`
	Summary   Summary        `json:"summary"`
}

// Project turns a report into a chart series, keeping the report's point order.
func Project(r *Report) Series {
	if r == nil {
		return Series{Points: []SeriesPoint{}}
	}

	points := make([]SeriesPoint, 0, len(r.Points))
	for i, p := range r.Points {
		points = append(points, SeriesPoint{
			Index:        i,
			Value:        p.Value,
			Status:       p.Status,
			Color:        p.Status.Color(),
			SerialNumber: p.SerialNumber,
			Operator:     p.Operator,
			Timestamp:    p.Timestamp,
		})
	}

	ratio := fmt.Sprintf("%d/%d", r.Stats.OutOfSpecCount, r.Stats.TotalCount)
	return Series{
		Points: points,
		Reference: ReferenceLines{
			Target: r.Target,
			USL:    r.USL,
			LSL:    r.LSL,
		},
		Summary: Summary{
			Mean:           r.Stats.Mean,
			StdDev:         r.Stats.StdDev,
			Cpk:            r.Stats.Cpk,
			OutOfSpec:      ratio,
			OutOfSpecCount: r.Stats.OutOfSpecCount,
			TotalCount:     r.Stats.TotalCount,
			Display: Display{
				Mean:      formatOptional(r.Stats.Mean, "%.3f"),
				StdDev:    formatOptional(r.Stats.StdDev, "%.3f"),
				Cpk:       formatOptional(r.Stats.Cpk, "%.2f"),
				OutOfSpec: ratio,
			},
		},
	}
}

// Recent returns the last k points of the series. Statistics are untouched;
// they always describe the full sequence. k <= 0 selects DefaultRecentWindow.
func (s Series) Recent(k int) []SeriesPoint {
	if k <= 0 {
		k = DefaultRecentWindow
	}
	if k >= len(s.Points) {
		return s.Points
	}
	return s.Points[len(s.Points)-k:]
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf(format, *v)
}
