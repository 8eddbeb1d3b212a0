// Package domain describes the shop-floor overview.
package domain

import (
	"context"
	"time"
)

const (
	TrendDays   = 30
	RecentLimit = 10
)

type Counts struct {
	Products     int64 `json:"products"`
	Features     int64 `json:"features"`
	Plans        int64 `json:"plans"`
	ActivePlans  int64 `json:"active_plans"`
	Measurements int64 `json:"measurements"`
}

type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type RecentMeasurement struct {
	ID           string    `json:"id"`
	ProductCode  string    `json:"product_code"`
	PlanName     string    `json:"plan_name"`
	FeatureName  string    `json:"feature_name"`
	SerialNumber string    `json:"serial_number"`
	Value        float64   `json:"value"`
	Operator     string    `json:"operator"`
	MeasuredAt   time.Time `json:"measured_at"`
}

type Overview struct {
	Counts Counts              `json:"counts"`
	Trend  []DayCount          `json:"trend"`
	Recent []RecentMeasurement `json:"recent"`
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}
