package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID     int64 `gorm:"primaryKey"`
	Active bool
}

func TestCounter(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	require.NoError(t, db.Create(&[]widget{{ID: 1, Active: true}, {ID: 2, Active: false}, {ID: 3, Active: true}}).Error)

	c := NewCounter[widget](db)
	all, err := c.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all)

	active, err := c.Count(context.Background(), &widget{Active: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
}
