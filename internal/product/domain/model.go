package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Product struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Code        string       `gorm:"type:varchar(64);not null;uniqueIndex:ux_products_code"`
	Name        string       `gorm:"type:varchar(255);not null"`
	Family      *string      `gorm:"type:varchar(128);index:ix_products_family"`
	Description *string      `gorm:"type:text"`
	Metadata    datatypes.JSONMap
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// References counts rows that keep a product from being deleted.
type References struct {
	Features int64
	Plans    int64
}

func (r References) InUse() bool { return r.Features > 0 || r.Plans > 0 }
