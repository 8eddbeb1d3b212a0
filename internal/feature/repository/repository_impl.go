package repository

import (
	"context"

	"github.com/smallbiznis/spacial/internal/feature/domain"
	"github.com/smallbiznis/spacial/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const featureColumns = `id, product_id, name, description, nominal, tolerance_minus, tolerance_plus, unit, measurement_type, created_at, updated_at`

func (r *repo) Create(ctx context.Context, db *gorm.DB, feature *domain.Feature) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO features (`+featureColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		feature.ID,
		feature.ProductID,
		feature.Name,
		feature.Description,
		feature.Nominal,
		feature.ToleranceMinus,
		feature.TolerancePlus,
		feature.Unit,
		feature.MeasurementType,
		feature.CreatedAt,
		feature.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Feature, error) {
	var f domain.Feature
	err := db.WithContext(ctx).Raw(
		`SELECT `+featureColumns+` FROM features WHERE id = ?`,
		id,
	).Scan(&f).Error
	if err != nil {
		return nil, err
	}
	if f.ID == 0 {
		return nil, nil
	}
	return &f, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Feature, error) {
	var items []domain.Feature
	stmt := db.WithContext(ctx).Model(&domain.Feature{})

	if filter.ProductID != 0 {
		stmt = stmt.Where("product_id = ?", filter.ProductID)
	}
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.MeasurementType != nil {
		stmt = stmt.Where("measurement_type = ?", *filter.MeasurementType)
	}

	stmt = option.WithSortBy(option.QuerySortBy{
		SortBy:  filter.SortBy,
		OrderBy: filter.OrderBy,
		Default: "name",
		Allow: map[string]bool{
			"created_at": true,
			"updated_at": true,
			"name":       true,
		},
	}).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, feature *domain.Feature) error {
	if feature == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE features
		 SET name = ?, description = ?, nominal = ?, tolerance_minus = ?, tolerance_plus = ?,
		     unit = ?, measurement_type = ?, updated_at = ?
		 WHERE id = ?`,
		feature.Name,
		feature.Description,
		feature.Nominal,
		feature.ToleranceMinus,
		feature.TolerancePlus,
		feature.Unit,
		feature.MeasurementType,
		feature.UpdatedAt,
		feature.ID,
	).Error
}

func (r *repo) DeleteCascade(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM measurements WHERE feature_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM plan_features WHERE feature_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM features WHERE id = ?`, id).Error
	})
}

func (r *repo) ProductExists(ctx context.Context, db *gorm.DB, productID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM products WHERE id = ?`, productID).Scan(&count).Error
	return count > 0, err
}
