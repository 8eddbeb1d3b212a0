// Package domain contains the measurement record and its ingestion contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/spc"
)

// Measurement is one recorded value for a (plan, feature) binding. Rows are
// never edited; they disappear only through plan, feature or binding removal.
type Measurement struct {
	ID           snowflake.ID `gorm:"primaryKey;index:ix_measurements_series,priority:4"`
	ProductID    snowflake.ID `gorm:"column:product_id;not null;index:ix_measurements_product"`
	PlanID       snowflake.ID `gorm:"column:plan_id;not null;index:ix_measurements_series,priority:1"`
	FeatureID    snowflake.ID `gorm:"column:feature_id;not null;index:ix_measurements_series,priority:2"`
	SerialNumber string       `gorm:"column:serial_number;type:varchar(128);not null"`
	Value        float64      `gorm:"not null"`
	MeasuredAt   time.Time    `gorm:"column:measured_at;not null;index:ix_measurements_series,priority:3"`
	Operator     string       `gorm:"type:varchar(128);not null;default:''"`
	Notes        *string      `gorm:"type:text"`
}

// TableName sets the database table name.
func (Measurement) TableName() string { return "measurements" }

// Sample converts the record to the evaluator's input.
func (m Measurement) Sample() spc.Sample {
	return spc.Sample{
		Value:        m.Value,
		SerialNumber: m.SerialNumber,
		Operator:     m.Operator,
		Timestamp:    m.MeasuredAt,
	}
}

// Samples converts an ordered slice of records, keeping the order.
func Samples(items []Measurement) []spc.Sample {
	out := make([]spc.Sample, 0, len(items))
	for _, item := range items {
		out = append(out, item.Sample())
	}
	return out
}

// PlanRef is what ingestion needs to know about the target plan.
type PlanRef struct {
	ID        snowflake.ID
	ProductID snowflake.ID
	Active    bool
}

// BindingRef carries the limits of the (plan, feature) pair.
type BindingRef struct {
	ID     snowflake.ID
	Target *float64
	USL    *float64
	LSL    *float64
}

func (b BindingRef) Limits() spc.Limits {
	return spc.Limits{Target: b.Target, USL: b.USL, LSL: b.LSL}
}

// SeriesCursor marks the last row of a page in capture order.
type SeriesCursor struct {
	MeasuredAt time.Time
	ID         snowflake.ID
}
