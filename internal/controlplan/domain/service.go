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
	ProductID string
	Active    *bool
}

type CreateRequest struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

type UpdateRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type Response struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductCode  string    `json:"product_code,omitempty"`
	ProductName  string    `json:"product_name,omitempty"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Active       bool      `json:"active"`
	FeatureCount int64     `json:"feature_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidProduct = errors.New("invalid_product")
	ErrInvalidName    = errors.New("invalid_name")
	ErrNotFound       = errors.New("plan_not_found")
	ErrProductMissing = errors.New("product_not_found")
)
