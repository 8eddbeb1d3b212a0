package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/planfeature/domain"
	"github.com/smallbiznis/spacial/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("planfeature.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

// Bind attaches a feature of the plan's product to the plan. Limits may be
// left empty and filled in later.
func (s *Service) Bind(ctx context.Context, req domain.BindRequest) (*domain.Response, error) {
	planID, err := parseID(req.PlanID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}
	featureID, err := parseID(req.FeatureID, domain.ErrInvalidFeatureID)
	if err != nil {
		return nil, err
	}
	if err := checkLimits(req.Target, req.USL, req.LSL); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	binding := &domain.Binding{
		ID:        s.genID.Generate(),
		PlanID:    planID,
		FeatureID: featureID,
		Target:    req.Target,
		USL:       req.USL,
		LSL:       req.LSL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.repo.FindPlan(ctx, tx, planID.Int64())
		if err != nil {
			return err
		}
		if plan == nil {
			return domain.ErrPlanNotFound
		}
		feature, err := s.repo.FindFeature(ctx, tx, featureID.Int64())
		if err != nil {
			return err
		}
		if feature == nil {
			return domain.ErrFeatureNotFound
		}
		if feature.ProductID != plan.ProductID {
			return domain.ErrFeatureProductMismatch
		}

		existing, err := s.repo.FindRow(ctx, tx, planID.Int64(), featureID.Int64())
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrBindingExists
		}

		if err := s.repo.Create(ctx, tx, binding); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrBindingExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("feature bound to plan",
		zap.String("plan_id", planID.String()),
		zap.String("feature_id", featureID.String()),
		zap.Bool("complete", binding.Limits().Complete()),
	)
	return s.get(ctx, planID, featureID)
}

func (s *Service) List(ctx context.Context, planID string) ([]domain.Response, error) {
	id, err := parseID(planID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.FindPlan(ctx, s.db, id.Int64())
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}

	rows, err := s.repo.ListByPlan(ctx, s.db, id.Int64())
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(rows))
	for i := range rows {
		resp = append(resp, toResponse(&rows[i]))
	}
	return resp, nil
}

// ListAvailable returns the features of the plan's product that are not
// bound to the plan yet.
func (s *Service) ListAvailable(ctx context.Context, planID string) ([]domain.AvailableFeature, error) {
	id, err := parseID(planID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.FindPlan(ctx, s.db, id.Int64())
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}

	items, err := s.repo.ListAvailable(ctx, s.db, id.Int64(), plan.ProductID.Int64())
	if err != nil {
		return nil, err
	}
	resp := make([]domain.AvailableFeature, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.AvailableFeature{
			ID:   item.ID.String(),
			Name: item.Name,
			Unit: item.Unit,
		})
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, planID, featureID string) (*domain.Response, error) {
	pid, err := parseID(planID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}
	fid, err := parseID(featureID, domain.ErrInvalidFeatureID)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, pid, fid)
}

func (s *Service) UpdateLimits(ctx context.Context, req domain.UpdateLimitsRequest) (*domain.Response, error) {
	planID, err := parseID(req.PlanID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}
	featureID, err := parseID(req.FeatureID, domain.ErrInvalidFeatureID)
	if err != nil {
		return nil, err
	}
	if err := checkLimits(req.Target, req.USL, req.LSL); err != nil {
		return nil, err
	}

	row, err := s.repo.FindRow(ctx, s.db, planID.Int64(), featureID.Int64())
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrBindingNotFound
	}

	binding := row.Binding
	binding.Target = req.Target
	binding.USL = req.USL
	binding.LSL = req.LSL
	binding.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateLimits(ctx, s.db, &binding); err != nil {
		return nil, err
	}
	return s.get(ctx, planID, featureID)
}

// Unbind removes the binding and every measurement recorded against it.
func (s *Service) Unbind(ctx context.Context, planID, featureID string) error {
	pid, err := parseID(planID, domain.ErrInvalidPlanID)
	if err != nil {
		return err
	}
	fid, err := parseID(featureID, domain.ErrInvalidFeatureID)
	if err != nil {
		return err
	}

	row, err := s.repo.FindRow(ctx, s.db, pid.Int64(), fid.Int64())
	if err != nil {
		return err
	}
	if row == nil {
		return domain.ErrBindingNotFound
	}
	if err := s.repo.DeleteCascade(ctx, s.db, pid.Int64(), fid.Int64()); err != nil {
		return err
	}
	s.log.Info("feature unbound from plan",
		zap.String("plan_id", pid.String()),
		zap.String("feature_id", fid.String()),
		zap.Int64("measurements_removed", row.MeasurementCount),
	)
	return nil
}

func (s *Service) get(ctx context.Context, planID, featureID snowflake.ID) (*domain.Response, error) {
	row, err := s.repo.FindRow(ctx, s.db, planID.Int64(), featureID.Int64())
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrBindingNotFound
	}
	resp := toResponse(row)
	return &resp, nil
}

func toResponse(row *domain.BindingRow) domain.Response {
	return domain.Response{
		ID:               row.ID.String(),
		PlanID:           row.PlanID.String(),
		FeatureID:        row.FeatureID.String(),
		PlanName:         row.PlanName,
		FeatureName:      row.FeatureName,
		Unit:             row.FeatureUnit,
		Nominal:          row.FeatureNominal,
		MeasurementType:  row.MeasurementType,
		Target:           row.Target,
		USL:              row.USL,
		LSL:              row.LSL,
		Complete:         row.Limits().Complete(),
		MeasurementCount: row.MeasurementCount,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

// checkLimits rejects non-finite values. USL >= target >= LSL is expected
// but not enforced.
func checkLimits(values ...*float64) error {
	for _, v := range values {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return domain.ErrInvalidLimit
		}
	}
	return nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, invalid
	}
	return parsed, nil
}
