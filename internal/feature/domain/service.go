package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	ProductID       string
	Name            string
	MeasurementType *MeasurementType
	SortBy          string
	OrderBy         string
}

// ListFilter is the validated form of ListRequest used by the repository.
type ListFilter struct {
	ProductID       int64
	Name            string
	MeasurementType *MeasurementType
	SortBy          string
	OrderBy         string
}

type CreateRequest struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	Nominal         *float64        `json:"nominal"`
	ToleranceMinus  *float64        `json:"tolerance_minus"`
	TolerancePlus   *float64        `json:"tolerance_plus"`
	Unit            string          `json:"unit"`
	MeasurementType MeasurementType `json:"measurement_type"`
}

type UpdateRequest struct {
	ID              string           `json:"id"`
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Nominal         *float64         `json:"nominal,omitempty"`
	ToleranceMinus  *float64         `json:"tolerance_minus,omitempty"`
	TolerancePlus   *float64         `json:"tolerance_plus,omitempty"`
	Unit            *string          `json:"unit,omitempty"`
	MeasurementType *MeasurementType `json:"measurement_type,omitempty"`
}

type Response struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description,omitempty"`
	Nominal         *float64        `json:"nominal"`
	ToleranceMinus  *float64        `json:"tolerance_minus"`
	TolerancePlus   *float64        `json:"tolerance_plus"`
	Unit            string          `json:"unit"`
	MeasurementType MeasurementType `json:"measurement_type"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

var (
	ErrInvalidProduct = errors.New("invalid_product")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidType    = errors.New("invalid_measurement_type")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidNumber  = errors.New("invalid_number")
	ErrNotFound       = errors.New("feature_not_found")
	ErrProductMissing = errors.New("product_not_found")
)
