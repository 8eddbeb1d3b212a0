package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/dashboard/domain"
	"github.com/smallbiznis/spacial/internal/dashboard/repository"
	"github.com/smallbiznis/spacial/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOverview(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	fx := testutil.NewFixture(t, db, node)
	now := time.Date(2026, 3, 30, 12, 0, 0, 0, time.UTC)

	product := fx.Product("AX-900")
	fx.Product("HUD-Z4")
	feature := fx.Feature(product, "Bore diameter")
	plan := fx.Plan(product, "Final inspection", true)
	fx.Plan(product, "Retired", false)
	fx.Bind(plan, feature, testutil.Float(100), testutil.Float(110), testutil.Float(90))

	fx.Measure(product, plan, feature, "OLD", 100, now.AddDate(0, 0, -45))
	fx.Measure(product, plan, feature, "SN-1", 100, now.Add(-26*time.Hour))
	for i := 0; i < 12; i++ {
		fx.Measure(product, plan, feature, "SN-2", 100+float64(i), now.Add(-time.Duration(12-i)*time.Minute))
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(now),
		Repo:  repository.Provide(),
	})

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Counts{Products: 2, Features: 1, Plans: 2, ActivePlans: 1, Measurements: 14}, overview.Counts)

	require.Len(t, overview.Trend, domain.TrendDays)
	assert.Equal(t, "2026-03-01", overview.Trend[0].Day)
	last := overview.Trend[len(overview.Trend)-1]
	assert.Equal(t, "2026-03-30", last.Day)
	assert.Equal(t, int64(12), last.Count)
	assert.Equal(t, int64(1), overview.Trend[len(overview.Trend)-2].Count)

	var total int64
	for _, d := range overview.Trend {
		total += d.Count
	}
	assert.Equal(t, int64(13), total)

	require.Len(t, overview.Recent, domain.RecentLimit)
	assert.Equal(t, 111.0, overview.Recent[0].Value)
	assert.Equal(t, "AX-900", overview.Recent[0].ProductCode)
	assert.Equal(t, "Bore diameter", overview.Recent[0].FeatureName)
}

func TestBuildTrend_ZeroFills(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trend := buildTrend(first, 3, []time.Time{first.Add(25 * time.Hour)})

	assert.Equal(t, []domain.DayCount{
		{Day: "2026-01-01", Count: 0},
		{Day: "2026-01-02", Count: 1},
		{Day: "2026-01-03", Count: 0},
	}, trend)
}
