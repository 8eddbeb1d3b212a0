package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/measurement/domain"
	obscontext "github.com/smallbiznis/spacial/internal/observability/context"
	"github.com/smallbiznis/spacial/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/spacial/internal/observability/metrics"
	"github.com/smallbiznis/spacial/internal/spc"
	"github.com/smallbiznis/spacial/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("measurement.service"),

		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

// Record appends one measurement to a (plan, feature) binding. The capture
// time comes from the clock; callers cannot backdate values.
func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.Response, error) {
	planID, err := parseID(req.PlanID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}
	featureID, err := parseID(req.FeatureID, domain.ErrInvalidFeatureID)
	if err != nil {
		return nil, err
	}

	serial := strings.TrimSpace(req.SerialNumber)
	if serial == "" {
		return nil, domain.ErrInvalidSerialNumber
	}
	if math.IsNaN(req.Value) || math.IsInf(req.Value, 0) {
		return nil, domain.ErrInvalidValue
	}

	operator := strings.TrimSpace(req.Operator)
	ctx = obscontext.WithOperator(ctx, operator)
	log := logger.WithContext(ctx, s.log)

	var (
		record  *domain.Measurement
		binding *domain.BindingRef
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.repo.FindPlan(ctx, tx, planID.Int64())
		if err != nil {
			return err
		}
		if plan == nil {
			return domain.ErrPlanNotFound
		}
		if !plan.Active {
			return domain.ErrPlanInactive
		}

		exists, err := s.repo.FeatureExists(ctx, tx, featureID.Int64())
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrFeatureNotFound
		}

		binding, err = s.repo.FindBinding(ctx, tx, planID.Int64(), featureID.Int64())
		if err != nil {
			return err
		}
		if binding == nil {
			return domain.ErrBindingNotFound
		}

		record = &domain.Measurement{
			ID:           s.genID.Generate(),
			ProductID:    plan.ProductID,
			PlanID:       planID,
			FeatureID:    featureID,
			SerialNumber: serial,
			Value:        req.Value,
			MeasuredAt:   s.clock.Now().UTC(),
			Operator:     operator,
			Notes:        trimmedOrNil(req.Notes),
		}
		return s.repo.Insert(ctx, tx, record)
	})
	if err != nil {
		if errors.Is(err, domain.ErrPlanInactive) {
			log.Info("measurement rejected for inactive plan", zap.String("plan_id", planID.String()))
		}
		return nil, err
	}

	status := classify(record.Value, binding.Limits())
	s.obsMetrics.RecordMeasurement(ctx, status)
	if status == string(spc.StatusOutOfSpec) {
		log.Warn("measurement out of spec",
			zap.String("measurement_id", record.ID.String()),
			zap.String("plan_id", planID.String()),
			zap.String("feature_id", featureID.String()),
			zap.Float64("value", record.Value),
		)
	}

	resp := toResponse(record)
	resp.Status = status
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	planID, err := parseID(req.PlanID, domain.ErrInvalidPlanID)
	if err != nil {
		return domain.ListResponse{}, err
	}
	featureID, err := parseID(req.FeatureID, domain.ErrInvalidFeatureID)
	if err != nil {
		return domain.ListResponse{}, err
	}

	var after *domain.SeriesCursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		after, err = decodeCursor(token)
		if err != nil {
			return domain.ListResponse{}, err
		}
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	limit := page.Limit()
	items, err := s.repo.ListPage(ctx, s.db, planID.Int64(), featureID.Int64(), after, limit+1)
	if err != nil {
		return domain.ListResponse{}, err
	}

	kept, info, err := pagination.BuildCursorPageInfo(items, limit, encodeCursor)
	if err != nil {
		return domain.ListResponse{}, err
	}

	out := make([]domain.Response, 0, len(kept))
	for i := range kept {
		out = append(out, toResponse(&kept[i]))
	}
	return domain.ListResponse{PageInfo: *info, Measurements: out}, nil
}

func (s *Service) Series(ctx context.Context, planID, featureID string) ([]domain.Measurement, error) {
	pid, err := parseID(planID, domain.ErrInvalidPlanID)
	if err != nil {
		return nil, err
	}
	fid, err := parseID(featureID, domain.ErrInvalidFeatureID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSeries(ctx, s.db, pid.Int64(), fid.Int64())
}

func classify(value float64, limits spc.Limits) string {
	if !limits.Complete() {
		return domain.StatusUnclassified
	}
	return string(spc.Classify(value, *limits.Target, *limits.USL, *limits.LSL))
}

func encodeCursor(m domain.Measurement) (string, error) {
	return pagination.EncodeCursor(pagination.Cursor{
		ID:         m.ID.String(),
		MeasuredAt: strconv.FormatInt(m.MeasuredAt.UnixNano(), 10),
	})
}

func decodeCursor(token string) (*domain.SeriesCursor, error) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidPageToken
	}
	nanos, err := strconv.ParseInt(cursor.MeasuredAt, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	return &domain.SeriesCursor{MeasuredAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

func toResponse(m *domain.Measurement) domain.Response {
	return domain.Response{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		PlanID:       m.PlanID.String(),
		FeatureID:    m.FeatureID.String(),
		SerialNumber: m.SerialNumber,
		Value:        m.Value,
		MeasuredAt:   m.MeasuredAt,
		Operator:     m.Operator,
		Notes:        m.Notes,
	}
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
