package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// RecentRow is a measurement joined with its descriptors.
type RecentRow struct {
	ID           snowflake.ID
	ProductCode  string
	PlanName     string
	FeatureName  string
	SerialNumber string
	Value        float64
	Operator     string
	MeasuredAt   time.Time
}

type Repository interface {
	CaptureTimesSince(ctx context.Context, db *gorm.DB, since time.Time) ([]time.Time, error)
	Recent(ctx context.Context, db *gorm.DB, limit int) ([]RecentRow, error)
}
