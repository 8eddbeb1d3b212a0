package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/controlplan/domain"
	"github.com/smallbiznis/spacial/internal/controlplan/repository"
	"github.com/smallbiznis/spacial/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *testutil.Fixture, *clock.FakeClock) {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	fc := clock.NewFakeClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  repository.Provide(),
	})
	return svc, testutil.NewFixture(t, db, node), fc
}

func TestCreate_DefaultsToActive(t *testing.T) {
	svc, fx, _ := newTestService(t)
	product := fx.Product("AX-900")

	plan, err := svc.Create(context.Background(), domain.CreateRequest{ProductID: product.String(), Name: "Final inspection"})
	require.NoError(t, err)
	assert.True(t, plan.Active)
	assert.Equal(t, "AX-900", plan.ProductCode)
	assert.Equal(t, int64(0), plan.FeatureCount)

	inactive := false
	plan, err = svc.Create(context.Background(), domain.CreateRequest{ProductID: product.String(), Name: "Draft", Active: &inactive})
	require.NoError(t, err)
	assert.False(t, plan.Active)
}

func TestCreate_Validation(t *testing.T) {
	svc, fx, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{ProductID: "", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	_, err = svc.Create(ctx, domain.CreateRequest{ProductID: fx.Product("A").String(), Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{ProductID: "42", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrProductMissing)
}

func TestGet_CountsBoundFeatures(t *testing.T) {
	svc, fx, _ := newTestService(t)
	product := fx.Product("A")
	plan := fx.Plan(product, "Final", true)
	fx.Bind(plan, fx.Feature(product, "Bore"), nil, nil, nil)
	fx.Bind(plan, fx.Feature(product, "Length"), nil, nil, nil)

	got, err := svc.Get(context.Background(), plan.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.FeatureCount)

	_, err = svc.Get(context.Background(), "77")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_TogglesActive(t *testing.T) {
	svc, fx, _ := newTestService(t)
	plan := fx.Plan(fx.Product("A"), "Final", true)

	off := false
	updated, err := svc.Update(context.Background(), domain.UpdateRequest{ID: plan.String(), Active: &off})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Final", updated.Name)
}

func TestList_FiltersActive(t *testing.T) {
	svc, fx, _ := newTestService(t)
	product := fx.Product("A")
	fx.Plan(product, "One", true)
	fx.Plan(product, "Two", false)

	active := true
	items, err := svc.List(context.Background(), domain.ListRequest{Active: &active})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "One", items[0].Name)

	items, err = svc.List(context.Background(), domain.ListRequest{ProductID: product.String()})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDelete_Cascades(t *testing.T) {
	svc, fx, _ := newTestService(t)
	product := fx.Product("A")
	plan := fx.Plan(product, "Final", true)
	feature := fx.Feature(product, "Bore")
	fx.Bind(plan, feature, nil, nil, nil)
	fx.Measure(product, plan, feature, "SN", 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, svc.Delete(context.Background(), plan.String()))
	assert.Equal(t, int64(0), fx.Count("control_plans"))
	assert.Equal(t, int64(0), fx.Count("plan_features"))
	assert.Equal(t, int64(0), fx.Count("measurements"))
	assert.Equal(t, int64(1), fx.Count("features"))
}
