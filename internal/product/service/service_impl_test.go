package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/product/domain"
	"github.com/smallbiznis/spacial/internal/product/repository"
	"github.com/smallbiznis/spacial/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *testutil.Fixture) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, testutil.NewFixture(t, db, node)
}

func TestCreate_NormalizesCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	family := " brackets "
	created, err := svc.Create(ctx, domain.CreateRequest{Code: " ax-900 ", Name: "Axle bracket", Family: &family})
	require.NoError(t, err)
	assert.Equal(t, "AX-900", created.Code)
	require.NotNil(t, created.Family)
	assert.Equal(t, "brackets", *created.Family)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Axle bracket", got.Name)

	_, err = svc.Create(ctx, domain.CreateRequest{Code: "AX-900", Name: "Duplicate"})
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Code: " ", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, domain.CreateRequest{Code: "X1", Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestGet_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Get(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_ChangesName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Code: "HUD-Z4", Name: "Housing"})
	require.NoError(t, err)

	name := "Housing Z4"
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Housing Z4", updated.Name)

	blank := "  "
	_, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestDelete_RejectedWhileReferenced(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Code: "AX-900", Name: "Axle"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	productID := mustID(t, got.ID)
	fx.Feature(productID, "Bore")

	err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrInUse)
	assert.Equal(t, int64(1), fx.Count("products"))
}

func TestDelete_Unreferenced(t *testing.T) {
	svc, fx := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Code: "AX-901", Name: "Spare"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, int64(0), fx.Count("products"))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_FiltersByName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, req := range []domain.CreateRequest{
		{Code: "B-2", Name: "Bracket"},
		{Code: "A-1", Name: "Axle"},
		{Code: "C-3", Name: "Axle cover"},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A-1", all[0].Code)

	axles, err := svc.List(ctx, domain.ListRequest{Name: "Axle"})
	require.NoError(t, err)
	assert.Len(t, axles, 2)
}

func mustID(t *testing.T, value string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(value)
	require.NoError(t, err)
	return id
}
