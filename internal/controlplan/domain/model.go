package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ControlPlan is a named, activatable set of features of one product with
// their operative control limits. Operators call it a "gamma".
type ControlPlan struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	ProductID   snowflake.ID `gorm:"column:product_id;not null;index:ix_control_plans_product"`
	Name        string       `gorm:"type:varchar(255);not null"`
	Description *string      `gorm:"type:text"`
	Active      bool         `gorm:"not null;default:true"`
	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
}

func (ControlPlan) TableName() string { return "control_plans" }

// PlanRow is a plan joined with its product and bound feature count.
type PlanRow struct {
	ControlPlan
	ProductCode  string
	ProductName  string
	FeatureCount int64
}
