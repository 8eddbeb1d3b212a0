package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	ProductID int64
	Active    *bool
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, plan *ControlPlan) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*ControlPlan, error)
	FindRow(ctx context.Context, db *gorm.DB, id int64) (*PlanRow, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]PlanRow, error)
	Update(ctx context.Context, db *gorm.DB, plan *ControlPlan) error
	// DeleteCascade removes measurements, then bindings, then the plan.
	DeleteCascade(ctx context.Context, db *gorm.DB, id int64) error
	ProductExists(ctx context.Context, db *gorm.DB, productID int64) (bool, error)
}
