// Package repository provides a generic gorm-backed counter for tables
// where a hand-written query adds nothing.
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Counter counts rows of T matching the non-zero fields of a filter.
type Counter[T any] interface {
	Count(ctx context.Context, filter *T) (int64, error)
}

type counter[T any] struct {
	db *gorm.DB
}

func NewCounter[T any](db *gorm.DB) Counter[T] {
	return &counter[T]{db: db}
}

// Count with a nil filter counts the whole table. Zero-valued fields are
// ignored by gorm, so a filter cannot match on false or 0.
func (c *counter[T]) Count(ctx context.Context, filter *T) (int64, error) {
	var n int64
	stmt := c.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		stmt = stmt.Where(filter)
	}
	return n, stmt.Count(&n).Error
}
