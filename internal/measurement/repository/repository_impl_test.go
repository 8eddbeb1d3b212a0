package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smallbiznis/spacial/internal/measurement/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestListSeries_OrdersByCaptureTimeThenID(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "plan_id", "feature_id", "serial_number", "value"}).
		AddRow(1, 10, 20, "A", 100.1).
		AddRow(2, 10, 20, "B", 99.9)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY measured_at ASC, id ASC")).
		WithArgs(int64(10), int64(20)).
		WillReturnRows(rows)

	items, err := Provide().ListSeries(context.Background(), db, 10, 20)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "A", items[0].SerialNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPage_AppliesCursorAndLimit(t *testing.T) {
	db, mock := newMockDB(t)
	after := &domain.SeriesCursor{MeasuredAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), ID: 7}

	mock.ExpectQuery(`measured_at > \$3 OR \(measured_at = \$4 AND id > \$5\).*ORDER BY measured_at ASC,id ASC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "serial_number"}).AddRow(8, "B"))

	items, err := Provide().ListPage(context.Background(), db, 10, 20, after, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
