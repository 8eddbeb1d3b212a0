package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/planfeature/domain"
	"github.com/smallbiznis/spacial/internal/planfeature/repository"
	"github.com/smallbiznis/spacial/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	svc     domain.Service
	fx      *testutil.Fixture
	product snowflake.ID
	plan    snowflake.ID
	feature snowflake.ID
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	fx := testutil.NewFixture(t, db, node)
	product := fx.Product("AX-900")

	return env{
		svc: New(Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: node,
			Clock: clock.NewFakeClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)),
			Repo:  repository.Provide(),
		}),
		fx:      fx,
		product: product,
		plan:    fx.Plan(product, "Final inspection", true),
		feature: fx.Feature(product, "Bore diameter"),
	}
}

func TestBind_WithLimits(t *testing.T) {
	e := setup(t)

	resp, err := e.svc.Bind(context.Background(), domain.BindRequest{
		PlanID:    e.plan.String(),
		FeatureID: e.feature.String(),
		Target:    testutil.Float(100),
		USL:       testutil.Float(110),
		LSL:       testutil.Float(90),
	})
	require.NoError(t, err)
	assert.True(t, resp.Complete)
	assert.Equal(t, "Final inspection", resp.PlanName)
	assert.Equal(t, "Bore diameter", resp.FeatureName)
	assert.Equal(t, "mm", resp.Unit)
}

func TestBind_WithoutLimitsIsIncomplete(t *testing.T) {
	e := setup(t)

	resp, err := e.svc.Bind(context.Background(), domain.BindRequest{
		PlanID:    e.plan.String(),
		FeatureID: e.feature.String(),
		Target:    testutil.Float(100),
	})
	require.NoError(t, err)
	assert.False(t, resp.Complete)
	assert.Nil(t, resp.USL)
}

func TestBind_Rejections(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	otherProduct := e.fx.Product("HUD-Z4")
	foreign := e.fx.Feature(otherProduct, "Lens")

	_, err := e.svc.Bind(ctx, domain.BindRequest{PlanID: e.plan.String(), FeatureID: foreign.String()})
	assert.ErrorIs(t, err, domain.ErrFeatureProductMismatch)

	_, err = e.svc.Bind(ctx, domain.BindRequest{PlanID: "5", FeatureID: e.feature.String()})
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)

	_, err = e.svc.Bind(ctx, domain.BindRequest{PlanID: e.plan.String(), FeatureID: "5"})
	assert.ErrorIs(t, err, domain.ErrFeatureNotFound)

	_, err = e.svc.Bind(ctx, domain.BindRequest{PlanID: e.plan.String(), FeatureID: e.feature.String()})
	require.NoError(t, err)
	_, err = e.svc.Bind(ctx, domain.BindRequest{PlanID: e.plan.String(), FeatureID: e.feature.String()})
	assert.ErrorIs(t, err, domain.ErrBindingExists)

	assert.Equal(t, int64(1), e.fx.Count("plan_features"))
}

func TestListAvailable_ExcludesBound(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.fx.Feature(e.product, "Length")
	e.fx.Feature(e.fx.Product("OTHER"), "Unrelated")

	available, err := e.svc.ListAvailable(ctx, e.plan.String())
	require.NoError(t, err)
	assert.Len(t, available, 2)

	_, err = e.svc.Bind(ctx, domain.BindRequest{PlanID: e.plan.String(), FeatureID: e.feature.String()})
	require.NoError(t, err)

	available, err = e.svc.ListAvailable(ctx, e.plan.String())
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "Length", available[0].Name)

	bound, err := e.svc.List(ctx, e.plan.String())
	require.NoError(t, err)
	require.Len(t, bound, 1)
	assert.Equal(t, e.feature.String(), bound[0].FeatureID)
}

func TestUpdateLimits_ReplacesAllThree(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.fx.Bind(e.plan, e.feature, testutil.Float(100), testutil.Float(110), testutil.Float(90))

	resp, err := e.svc.UpdateLimits(ctx, domain.UpdateLimitsRequest{
		PlanID:    e.plan.String(),
		FeatureID: e.feature.String(),
		Target:    testutil.Float(50),
		USL:       testutil.Float(55),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Target)
	assert.Equal(t, 50.0, *resp.Target)
	assert.Nil(t, resp.LSL)
	assert.False(t, resp.Complete)

	_, err = e.svc.UpdateLimits(ctx, domain.UpdateLimitsRequest{PlanID: e.plan.String(), FeatureID: "9"})
	assert.ErrorIs(t, err, domain.ErrBindingNotFound)
}

func TestUnbind_RemovesMeasurements(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.fx.Bind(e.plan, e.feature, testutil.Float(100), testutil.Float(110), testutil.Float(90))
	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	e.fx.Measure(e.product, e.plan, e.feature, "SN-1", 100, at)
	e.fx.Measure(e.product, e.plan, e.feature, "SN-2", 101, at.Add(time.Minute))

	got, err := e.svc.Get(ctx, e.plan.String(), e.feature.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.MeasurementCount)

	require.NoError(t, e.svc.Unbind(ctx, e.plan.String(), e.feature.String()))
	assert.Equal(t, int64(0), e.fx.Count("plan_features"))
	assert.Equal(t, int64(0), e.fx.Count("measurements"))
	assert.Equal(t, int64(1), e.fx.Count("features"))

	err = e.svc.Unbind(ctx, e.plan.String(), e.feature.String())
	assert.ErrorIs(t, err, domain.ErrBindingNotFound)
}
