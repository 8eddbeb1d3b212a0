package repository

import (
	"context"

	"github.com/smallbiznis/spacial/internal/measurement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const measurementColumns = `id, product_id, plan_id, feature_id, serial_number, value, measured_at, operator, notes`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *domain.Measurement) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO measurements (`+measurementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.ProductID,
		m.PlanID,
		m.FeatureID,
		m.SerialNumber,
		m.Value,
		m.MeasuredAt,
		m.Operator,
		m.Notes,
	).Error
}

func (r *repo) ListSeries(ctx context.Context, db *gorm.DB, planID, featureID int64) ([]domain.Measurement, error) {
	var items []domain.Measurement
	err := db.WithContext(ctx).Raw(
		`SELECT `+measurementColumns+`
		 FROM measurements
		 WHERE plan_id = ? AND feature_id = ?
		 ORDER BY measured_at ASC, id ASC`,
		planID,
		featureID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListPage(ctx context.Context, db *gorm.DB, planID, featureID int64, after *domain.SeriesCursor, limit int) ([]domain.Measurement, error) {
	var items []domain.Measurement
	stmt := db.WithContext(ctx).
		Model(&domain.Measurement{}).
		Where("plan_id = ? AND feature_id = ?", planID, featureID)

	if after != nil {
		stmt = stmt.Where(
			"(measured_at > ? OR (measured_at = ? AND id > ?))",
			after.MeasuredAt,
			after.MeasuredAt,
			after.ID,
		)
	}

	err := stmt.Order("measured_at ASC").Order("id ASC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindPlan(ctx context.Context, db *gorm.DB, planID int64) (*domain.PlanRef, error) {
	var plan domain.PlanRef
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, active FROM control_plans WHERE id = ?`,
		planID,
	).Scan(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) FeatureExists(ctx context.Context, db *gorm.DB, featureID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM features WHERE id = ?`, featureID).Scan(&count).Error
	return count > 0, err
}

func (r *repo) FindBinding(ctx context.Context, db *gorm.DB, planID, featureID int64) (*domain.BindingRef, error) {
	var binding domain.BindingRef
	err := db.WithContext(ctx).Raw(
		`SELECT id, target, usl, lsl FROM plan_features WHERE plan_id = ? AND feature_id = ?`,
		planID,
		featureID,
	).Scan(&binding).Error
	if err != nil {
		return nil, err
	}
	if binding.ID == 0 {
		return nil, nil
	}
	return &binding, nil
}
