package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, feature *Feature) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Feature, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Feature, error)
	Update(ctx context.Context, db *gorm.DB, feature *Feature) error
	// DeleteCascade removes the feature with its bindings and measurements.
	DeleteCascade(ctx context.Context, db *gorm.DB, id int64) error
	ProductExists(ctx context.Context, db *gorm.DB, productID int64) (bool, error)
}
