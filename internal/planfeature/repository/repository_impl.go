package repository

import (
	"context"

	"github.com/smallbiznis/spacial/internal/planfeature/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const bindingRowSelect = `SELECT pf.id, pf.plan_id, pf.feature_id, pf.target, pf.usl, pf.lsl, pf.created_at, pf.updated_at,
		cp.product_id, cp.name AS plan_name, cp.active AS plan_active,
		f.name AS feature_name, f.unit AS feature_unit, f.nominal AS feature_nominal,
		f.measurement_type,
		(SELECT COUNT(*) FROM measurements m WHERE m.plan_id = pf.plan_id AND m.feature_id = pf.feature_id) AS measurement_count
	FROM plan_features pf
	JOIN control_plans cp ON cp.id = pf.plan_id
	JOIN features f ON f.id = pf.feature_id`

func (r *repo) Create(ctx context.Context, db *gorm.DB, binding *domain.Binding) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO plan_features (id, plan_id, feature_id, target, usl, lsl, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		binding.ID,
		binding.PlanID,
		binding.FeatureID,
		binding.Target,
		binding.USL,
		binding.LSL,
		binding.CreatedAt,
		binding.UpdatedAt,
	).Error
}

func (r *repo) FindRow(ctx context.Context, db *gorm.DB, planID, featureID int64) (*domain.BindingRow, error) {
	var row domain.BindingRow
	err := db.WithContext(ctx).Raw(
		bindingRowSelect+` WHERE pf.plan_id = ? AND pf.feature_id = ?`,
		planID,
		featureID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) ListByPlan(ctx context.Context, db *gorm.DB, planID int64) ([]domain.BindingRow, error) {
	var rows []domain.BindingRow
	err := db.WithContext(ctx).Raw(
		bindingRowSelect+` WHERE pf.plan_id = ? ORDER BY f.name ASC, pf.id ASC`,
		planID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListAvailable(ctx context.Context, db *gorm.DB, planID, productID int64) ([]domain.FeatureRef, error) {
	var items []domain.FeatureRef
	err := db.WithContext(ctx).Raw(
		`SELECT f.id, f.product_id, f.name, f.unit
		   FROM features f
		  WHERE f.product_id = ?
		    AND NOT EXISTS (
		        SELECT 1 FROM plan_features pf WHERE pf.plan_id = ? AND pf.feature_id = f.id
		    )
		  ORDER BY f.name ASC`,
		productID,
		planID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateLimits(ctx context.Context, db *gorm.DB, binding *domain.Binding) error {
	if binding == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE plan_features SET target = ?, usl = ?, lsl = ?, updated_at = ?
		 WHERE plan_id = ? AND feature_id = ?`,
		binding.Target,
		binding.USL,
		binding.LSL,
		binding.UpdatedAt,
		binding.PlanID,
		binding.FeatureID,
	).Error
}

func (r *repo) DeleteCascade(ctx context.Context, db *gorm.DB, planID, featureID int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM measurements WHERE plan_id = ? AND feature_id = ?`,
			planID,
			featureID,
		).Error; err != nil {
			return err
		}
		return tx.Exec(
			`DELETE FROM plan_features WHERE plan_id = ? AND feature_id = ?`,
			planID,
			featureID,
		).Error
	})
}

func (r *repo) FindPlan(ctx context.Context, db *gorm.DB, planID int64) (*domain.PlanRef, error) {
	var plan domain.PlanRef
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, name, active FROM control_plans WHERE id = ?`,
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

func (r *repo) FindFeature(ctx context.Context, db *gorm.DB, featureID int64) (*domain.FeatureRef, error) {
	var feature domain.FeatureRef
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, name, unit FROM features WHERE id = ?`,
		featureID,
	).Scan(&feature).Error
	if err != nil {
		return nil, err
	}
	if feature.ID == 0 {
		return nil, nil
	}
	return &feature, nil
}
