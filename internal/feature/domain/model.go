package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type MeasurementType string

const (
	MeasurementTypeDimension MeasurementType = "dimension"
	MeasurementTypeSurface   MeasurementType = "surface"
	MeasurementTypeGeometric MeasurementType = "geometric"
	MeasurementTypeOptical   MeasurementType = "optical"
	MeasurementTypeTemporal  MeasurementType = "temporal"
	MeasurementTypeOther     MeasurementType = "other"
)

const DefaultUnit = "mm"

// Feature is a measurable characteristic of a product. Nominal and the
// tolerances are design references only; control limits live on the
// plan binding.
type Feature struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	ProductID       snowflake.ID    `gorm:"column:product_id;not null;index:ix_features_product"`
	Name            string          `gorm:"type:varchar(255);not null"`
	Description     *string         `gorm:"type:text"`
	Nominal         *float64        `gorm:"column:nominal"`
	ToleranceMinus  *float64        `gorm:"column:tolerance_minus"`
	TolerancePlus   *float64        `gorm:"column:tolerance_plus"`
	Unit            string          `gorm:"type:varchar(32);not null;default:mm"`
	MeasurementType MeasurementType `gorm:"column:measurement_type;type:varchar(32);not null;default:dimension"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

func (Feature) TableName() string { return "features" }
