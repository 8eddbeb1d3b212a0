package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/spacial/pkg/db/pagination"
)

type RecordRequest struct {
	PlanID       string  `json:"plan_id"`
	FeatureID    string  `json:"feature_id"`
	SerialNumber string  `json:"serial_number"`
	Value        float64 `json:"value"`
	Operator     string  `json:"operator"`
	Notes        *string `json:"notes"`
}

type ListRequest struct {
	PlanID    string
	FeatureID string
	PageToken string
	PageSize  int
}

type ListResponse struct {
	pagination.PageInfo
	Measurements []Response `json:"measurements"`
}

// Response is a stored measurement. Status is computed at ingestion when
// the binding has complete limits and is not persisted.
type Response struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	PlanID       string    `json:"plan_id"`
	FeatureID    string    `json:"feature_id"`
	SerialNumber string    `json:"serial_number"`
	Value        float64   `json:"value"`
	MeasuredAt   time.Time `json:"measured_at"`
	Operator     string    `json:"operator"`
	Notes        *string   `json:"notes,omitempty"`
	Status       string    `json:"status,omitempty"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// Series returns the full sequence of the pair in capture order.
	Series(ctx context.Context, planID, featureID string) ([]Measurement, error)
}

var (
	ErrInvalidPlanID       = errors.New("invalid_plan_id")
	ErrInvalidFeatureID    = errors.New("invalid_feature_id")
	ErrInvalidSerialNumber = errors.New("invalid_serial_number")
	ErrInvalidValue        = errors.New("invalid_value")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrPlanNotFound        = errors.New("plan_not_found")
	ErrFeatureNotFound     = errors.New("feature_not_found")
	ErrBindingNotFound     = errors.New("binding_not_found")
	ErrPlanInactive        = errors.New("plan_inactive")
)

// StatusUnclassified marks a measurement recorded against a binding whose
// limits are not all set.
const StatusUnclassified = "unclassified"
