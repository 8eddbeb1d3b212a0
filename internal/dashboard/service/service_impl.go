package service

import (
	"context"
	"time"

	"github.com/smallbiznis/spacial/internal/clock"
	plandomain "github.com/smallbiznis/spacial/internal/controlplan/domain"
	"github.com/smallbiznis/spacial/internal/dashboard/domain"
	featuredomain "github.com/smallbiznis/spacial/internal/feature/domain"
	measurementdomain "github.com/smallbiznis/spacial/internal/measurement/domain"
	productdomain "github.com/smallbiznis/spacial/internal/product/domain"
	"github.com/smallbiznis/spacial/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository

	products     repository.Counter[productdomain.Product]
	features     repository.Counter[featuredomain.Feature]
	plans        repository.Counter[plandomain.ControlPlan]
	measurements repository.Counter[measurementdomain.Measurement]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
		repo:  p.Repo,

		products:     repository.NewCounter[productdomain.Product](p.DB),
		features:     repository.NewCounter[featuredomain.Feature](p.DB),
		plans:        repository.NewCounter[plandomain.ControlPlan](p.DB),
		measurements: repository.NewCounter[measurementdomain.Measurement](p.DB),
	}
}

func (s *Service) Overview(ctx context.Context) (*domain.Overview, error) {
	var (
		out    domain.Overview
		times  []time.Time
		recent []domain.RecentRow
	)

	now := s.clock.Now().UTC()
	firstDay := startOfDay(now).AddDate(0, 0, -(domain.TrendDays - 1))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Counts.Products, err = s.products.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		out.Counts.Features, err = s.features.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		out.Counts.Plans, err = s.plans.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		out.Counts.ActivePlans, err = s.plans.Count(gctx, &plandomain.ControlPlan{Active: true})
		return err
	})
	g.Go(func() (err error) {
		out.Counts.Measurements, err = s.measurements.Count(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		times, err = s.repo.CaptureTimesSince(gctx, s.db, firstDay)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.repo.Recent(gctx, s.db, domain.RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("dashboard overview failed", zap.Error(err))
		return nil, err
	}

	out.Trend = buildTrend(firstDay, domain.TrendDays, times)
	out.Recent = make([]domain.RecentMeasurement, 0, len(recent))
	for _, row := range recent {
		out.Recent = append(out.Recent, domain.RecentMeasurement{
			ID:           row.ID.String(),
			ProductCode:  row.ProductCode,
			PlanName:     row.PlanName,
			FeatureName:  row.FeatureName,
			SerialNumber: row.SerialNumber,
			Value:        row.Value,
			Operator:     row.Operator,
			MeasuredAt:   row.MeasuredAt,
		})
	}
	return &out, nil
}

// buildTrend buckets capture times per UTC day, emitting a zero for days
// without measurements.
func buildTrend(firstDay time.Time, days int, times []time.Time) []domain.DayCount {
	counts := make(map[string]int64, days)
	for _, t := range times {
		counts[t.UTC().Format(time.DateOnly)]++
	}

	trend := make([]domain.DayCount, 0, days)
	for i := 0; i < days; i++ {
		day := firstDay.AddDate(0, 0, i).Format(time.DateOnly)
		trend = append(trend, domain.DayCount{Day: day, Count: counts[day]})
	}
	return trend
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
