package repository

import (
	"context"

	"github.com/smallbiznis/spacial/internal/controlplan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const planRowSelect = `SELECT cp.id, cp.product_id, cp.name, cp.description, cp.active, cp.created_at, cp.updated_at,
		p.code AS product_code, p.name AS product_name,
		(SELECT COUNT(*) FROM plan_features pf WHERE pf.plan_id = cp.id) AS feature_count
	FROM control_plans cp
	JOIN products p ON p.id = cp.product_id`

func (r *repo) Create(ctx context.Context, db *gorm.DB, plan *domain.ControlPlan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO control_plans (id, product_id, name, description, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.ProductID,
		plan.Name,
		plan.Description,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ControlPlan, error) {
	var plan domain.ControlPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, name, description, active, created_at, updated_at
		 FROM control_plans WHERE id = ?`,
		id,
	).Scan(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) FindRow(ctx context.Context, db *gorm.DB, id int64) (*domain.PlanRow, error) {
	var row domain.PlanRow
	err := db.WithContext(ctx).Raw(planRowSelect+` WHERE cp.id = ?`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.PlanRow, error) {
	query := planRowSelect + ` WHERE 1 = 1`
	args := []any{}
	if filter.ProductID != 0 {
		query += ` AND cp.product_id = ?`
		args = append(args, filter.ProductID)
	}
	if filter.Active != nil {
		query += ` AND cp.active = ?`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY cp.created_at DESC, cp.id DESC`

	var rows []domain.PlanRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, plan *domain.ControlPlan) error {
	if plan == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE control_plans SET name = ?, description = ?, active = ?, updated_at = ? WHERE id = ?`,
		plan.Name,
		plan.Description,
		plan.Active,
		plan.UpdatedAt,
		plan.ID,
	).Error
}

func (r *repo) DeleteCascade(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM measurements WHERE plan_id = ?`, id).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM plan_features WHERE plan_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM control_plans WHERE id = ?`, id).Error
	})
}

func (r *repo) ProductExists(ctx context.Context, db *gorm.DB, productID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM products WHERE id = ?`, productID).Scan(&count).Error
	return count > 0, err
}
