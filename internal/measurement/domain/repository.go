package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, m *Measurement) error
	// ListSeries returns every measurement of the pair ordered by
	// measured_at ASC, id ASC.
	ListSeries(ctx context.Context, db *gorm.DB, planID, featureID int64) ([]Measurement, error)
	// ListPage returns up to limit rows after the cursor in the same order.
	ListPage(ctx context.Context, db *gorm.DB, planID, featureID int64, after *SeriesCursor, limit int) ([]Measurement, error)
	FindPlan(ctx context.Context, db *gorm.DB, planID int64) (*PlanRef, error)
	FeatureExists(ctx context.Context, db *gorm.DB, featureID int64) (bool, error)
	FindBinding(ctx context.Context, db *gorm.DB, planID, featureID int64) (*BindingRef, error)
}
