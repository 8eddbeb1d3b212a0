// Package testutil builds in-memory stores and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/spacial/internal/migration"
	"gorm.io/gorm"
)

// OpenDB returns an isolated in-memory sqlite database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

// Fixture inserts rows directly so service tests can focus on one package.
type Fixture struct {
	t    *testing.T
	db   *gorm.DB
	node *snowflake.Node
	now  time.Time
}

func NewFixture(t *testing.T, db *gorm.DB, node *snowflake.Node) *Fixture {
	return &Fixture{
		t:    t,
		db:   db,
		node: node,
		now:  time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC),
	}
}

func (f *Fixture) Product(code string) snowflake.ID {
	f.t.Helper()
	id := f.node.Generate()
	f.exec(`INSERT INTO products (id, code, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, code, code+" product", f.now, f.now)
	return id
}

func (f *Fixture) Feature(productID snowflake.ID, name string) snowflake.ID {
	f.t.Helper()
	id := f.node.Generate()
	f.exec(`INSERT INTO features (id, product_id, name, unit, measurement_type, created_at, updated_at)
		VALUES (?, ?, ?, 'mm', 'dimension', ?, ?)`,
		id, productID, name, f.now, f.now)
	return id
}

func (f *Fixture) Plan(productID snowflake.ID, name string, active bool) snowflake.ID {
	f.t.Helper()
	id := f.node.Generate()
	f.exec(`INSERT INTO control_plans (id, product_id, name, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, productID, name, active, f.now, f.now)
	return id
}

// Bind attaches a feature with the given limits; nil leaves a limit unset.
func (f *Fixture) Bind(planID, featureID snowflake.ID, target, usl, lsl *float64) snowflake.ID {
	f.t.Helper()
	id := f.node.Generate()
	f.exec(`INSERT INTO plan_features (id, plan_id, feature_id, target, usl, lsl, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, planID, featureID, target, usl, lsl, f.now, f.now)
	return id
}

// Measure inserts a measurement captured at the given time.
func (f *Fixture) Measure(productID, planID, featureID snowflake.ID, serial string, value float64, at time.Time) snowflake.ID {
	f.t.Helper()
	id := f.node.Generate()
	f.exec(`INSERT INTO measurements (id, product_id, plan_id, feature_id, serial_number, value, measured_at, operator)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'OP-1')`,
		id, productID, planID, featureID, serial, value, at.UTC())
	return id
}

func (f *Fixture) Count(table string) int64 {
	f.t.Helper()
	var count int64
	if err := f.db.Table(table).Count(&count).Error; err != nil {
		f.t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func (f *Fixture) exec(sql string, args ...any) {
	f.t.Helper()
	if err := f.db.Exec(sql, args...).Error; err != nil {
		f.t.Fatalf("fixture: %v", err)
	}
}

func Float(v float64) *float64 { return &v }
