package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// PlanRef is the subset of a control plan the binding rules need.
type PlanRef struct {
	ID        snowflake.ID
	ProductID snowflake.ID
	Name      string
	Active    bool
}

// FeatureRef is the subset of a feature the binding rules need.
type FeatureRef struct {
	ID        snowflake.ID
	ProductID snowflake.ID
	Name      string
	Unit      string
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, binding *Binding) error
	FindRow(ctx context.Context, db *gorm.DB, planID, featureID int64) (*BindingRow, error)
	ListByPlan(ctx context.Context, db *gorm.DB, planID int64) ([]BindingRow, error)
	ListAvailable(ctx context.Context, db *gorm.DB, planID, productID int64) ([]FeatureRef, error)
	UpdateLimits(ctx context.Context, db *gorm.DB, binding *Binding) error
	// DeleteCascade removes the pair's measurements, then the binding.
	DeleteCascade(ctx context.Context, db *gorm.DB, planID, featureID int64) error
	FindPlan(ctx context.Context, db *gorm.DB, planID int64) (*PlanRef, error)
	FindFeature(ctx context.Context, db *gorm.DB, featureID int64) (*FeatureRef, error)
}
