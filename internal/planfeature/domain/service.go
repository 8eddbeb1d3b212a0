package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Bind(ctx context.Context, req BindRequest) (*Response, error)
	List(ctx context.Context, planID string) ([]Response, error)
	ListAvailable(ctx context.Context, planID string) ([]AvailableFeature, error)
	Get(ctx context.Context, planID, featureID string) (*Response, error)
	UpdateLimits(ctx context.Context, req UpdateLimitsRequest) (*Response, error)
	Unbind(ctx context.Context, planID, featureID string) error
}

type BindRequest struct {
	PlanID    string   `json:"plan_id"`
	FeatureID string   `json:"feature_id"`
	Target    *float64 `json:"target"`
	USL       *float64 `json:"usl"`
	LSL       *float64 `json:"lsl"`
}

// UpdateLimitsRequest replaces all three limits; a nil value clears it.
type UpdateLimitsRequest struct {
	PlanID    string   `json:"plan_id"`
	FeatureID string   `json:"feature_id"`
	Target    *float64 `json:"target"`
	USL       *float64 `json:"usl"`
	LSL       *float64 `json:"lsl"`
}

type Response struct {
	ID               string    `json:"id"`
	PlanID           string    `json:"plan_id"`
	FeatureID        string    `json:"feature_id"`
	PlanName         string    `json:"plan_name"`
	FeatureName      string    `json:"feature_name"`
	Unit             string    `json:"unit"`
	Nominal          *float64  `json:"nominal"`
	MeasurementType  string    `json:"measurement_type"`
	Target           *float64  `json:"target"`
	USL              *float64  `json:"usl"`
	LSL              *float64  `json:"lsl"`
	Complete         bool      `json:"complete"`
	MeasurementCount int64     `json:"measurement_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type AvailableFeature struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

var (
	ErrInvalidPlanID          = errors.New("invalid_plan_id")
	ErrInvalidFeatureID       = errors.New("invalid_feature_id")
	ErrInvalidLimit           = errors.New("invalid_limit")
	ErrPlanNotFound           = errors.New("plan_not_found")
	ErrFeatureNotFound        = errors.New("feature_not_found")
	ErrBindingNotFound        = errors.New("binding_not_found")
	ErrBindingExists          = errors.New("binding_exists")
	ErrFeatureProductMismatch = errors.New("feature_product_mismatch")
)
