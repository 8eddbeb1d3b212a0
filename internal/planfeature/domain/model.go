package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/spc"
)

// Binding attaches a feature to a control plan with the limits operators
// are judged against. Any limit may be unset; such a binding cannot be
// analysed until it is completed.
type Binding struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	PlanID    snowflake.ID `gorm:"column:plan_id;not null;uniqueIndex:ux_plan_features_pair,priority:1"`
	FeatureID snowflake.ID `gorm:"column:feature_id;not null;uniqueIndex:ux_plan_features_pair,priority:2;index:ix_plan_features_feature"`
	Target    *float64     `gorm:"column:target"`
	USL       *float64     `gorm:"column:usl"`
	LSL       *float64     `gorm:"column:lsl"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

func (Binding) TableName() string { return "plan_features" }

func (b Binding) Limits() spc.Limits {
	return spc.Limits{Target: b.Target, USL: b.USL, LSL: b.LSL}
}

// BindingRow is a binding joined with its feature and plan descriptors.
type BindingRow struct {
	Binding
	ProductID        snowflake.ID
	PlanName         string
	PlanActive       bool
	FeatureName      string
	FeatureUnit      string
	FeatureNominal   *float64
	MeasurementType  string
	MeasurementCount int64
}
