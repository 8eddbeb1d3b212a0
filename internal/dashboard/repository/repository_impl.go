package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/spacial/internal/dashboard/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CaptureTimesSince(ctx context.Context, db *gorm.DB, since time.Time) ([]time.Time, error) {
	var rows []struct {
		MeasuredAt time.Time
	}
	err := db.WithContext(ctx).Raw(
		`SELECT measured_at FROM measurements WHERE measured_at >= ? ORDER BY measured_at ASC`,
		since.UTC(),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		times = append(times, row.MeasuredAt)
	}
	return times, nil
}

func (r *repo) Recent(ctx context.Context, db *gorm.DB, limit int) ([]domain.RecentRow, error) {
	var rows []domain.RecentRow
	err := db.WithContext(ctx).Raw(
		`SELECT m.id, p.code AS product_code, cp.name AS plan_name, f.name AS feature_name,
		        m.serial_number, m.value, m.operator, m.measured_at
		   FROM measurements m
		   JOIN products p ON p.id = m.product_id
		   JOIN control_plans cp ON cp.id = m.plan_id
		   JOIN features f ON f.id = m.feature_id
		  ORDER BY m.measured_at DESC, m.id DESC
		  LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
