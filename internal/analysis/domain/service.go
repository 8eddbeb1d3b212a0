// Package domain describes SPC analysis over recorded measurements.
package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/spacial/internal/spc"
)

// Selector identifies one (plan, feature) binding.
type Selector struct {
	PlanID    string
	FeatureID string
}

// Header names the chart subject for display.
type Header struct {
	PlanID          string `json:"plan_id"`
	PlanName        string `json:"plan_name"`
	PlanActive      bool   `json:"plan_active"`
	ProductID       string `json:"product_id"`
	ProductCode     string `json:"product_code"`
	ProductName     string `json:"product_name"`
	FeatureID       string `json:"feature_id"`
	FeatureName     string `json:"feature_name"`
	Unit            string `json:"unit"`
	MeasurementType string `json:"measurement_type"`
}

type Chart struct {
	Header       Header            `json:"header"`
	Series       spc.Series        `json:"series"`
	Recent       []spc.SeriesPoint `json:"recent"`
	RecentWindow int               `json:"recent_window"`
}

// FeatureSummary is one row of a plan overview. Summary is nil when the
// binding is incomplete.
type FeatureSummary struct {
	FeatureID   string       `json:"feature_id"`
	FeatureName string       `json:"feature_name"`
	Unit        string       `json:"unit"`
	Complete    bool         `json:"complete"`
	Target      *float64     `json:"target"`
	USL         *float64     `json:"usl"`
	LSL         *float64     `json:"lsl"`
	Summary     *spc.Summary `json:"summary"`
}

type PlanSummary struct {
	PlanID      string           `json:"plan_id"`
	PlanName    string           `json:"plan_name"`
	Active      bool             `json:"active"`
	ProductCode string           `json:"product_code"`
	ProductName string           `json:"product_name"`
	Features    []FeatureSummary `json:"features"`
}

// Export is a rendered document ready to be served.
type Export struct {
	Filename     string
	ReportNumber string
	ContentType  string
	Content      []byte
}

type Service interface {
	Evaluate(ctx context.Context, sel Selector) (*spc.Report, error)
	Chart(ctx context.Context, sel Selector, recent int) (*Chart, error)
	PlanSummary(ctx context.Context, planID string) (*PlanSummary, error)
	ExportPDF(ctx context.Context, sel Selector) (*Export, error)
}

var (
	ErrInvalidRecent = errors.New("invalid_recent")
	// ErrIncompleteBinding and ErrUnordered are re-exported so handlers
	// only depend on this package.
	ErrIncompleteBinding = spc.ErrIncompleteBinding
	ErrUnordered         = spc.ErrUnordered
)
