package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/feature/domain"
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
		log:   p.Log.Named("feature.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListFilter{
		Name:            strings.TrimSpace(req.Name),
		MeasurementType: req.MeasurementType,
		SortBy:          strings.TrimSpace(req.SortBy),
		OrderBy:         strings.TrimSpace(req.OrderBy),
	}
	if productID := strings.TrimSpace(req.ProductID); productID != "" {
		parsed, err := parseID(productID)
		if err != nil {
			return nil, domain.ErrInvalidProduct
		}
		filter.ProductID = parsed.Int64()
	}
	if filter.MeasurementType != nil {
		mt, err := normalizeMeasurementType(*filter.MeasurementType)
		if err != nil {
			return nil, err
		}
		filter.MeasurementType = &mt
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	productID, err := parseID(req.ProductID)
	if err != nil {
		return nil, domain.ErrInvalidProduct
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	measurementType, err := normalizeMeasurementType(req.MeasurementType)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(req.Nominal, req.ToleranceMinus, req.TolerancePlus); err != nil {
		return nil, err
	}

	exists, err := s.repo.ProductExists(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrProductMissing
	}

	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = domain.DefaultUnit
	}

	now := s.clock.Now()
	record := &domain.Feature{
		ID:              s.genID.Generate(),
		ProductID:       productID,
		Name:            name,
		Description:     trimmedOrNil(req.Description),
		Nominal:         req.Nominal,
		ToleranceMinus:  req.ToleranceMinus,
		TolerancePlus:   req.TolerancePlus,
		Unit:            unit,
		MeasurementType: measurementType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, s.db, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = trimmedOrNil(req.Description)
	}
	if err := checkFinite(req.Nominal, req.ToleranceMinus, req.TolerancePlus); err != nil {
		return nil, err
	}
	if req.Nominal != nil {
		item.Nominal = req.Nominal
	}
	if req.ToleranceMinus != nil {
		item.ToleranceMinus = req.ToleranceMinus
	}
	if req.TolerancePlus != nil {
		item.TolerancePlus = req.TolerancePlus
	}
	if req.Unit != nil {
		unit := strings.TrimSpace(*req.Unit)
		if unit == "" {
			unit = domain.DefaultUnit
		}
		item.Unit = unit
	}
	if req.MeasurementType != nil {
		mt, err := normalizeMeasurementType(*req.MeasurementType)
		if err != nil {
			return nil, err
		}
		item.MeasurementType = mt
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

// Delete removes the feature together with its plan bindings and recorded
// measurements.
func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, s.db, item.ID.Int64()); err != nil {
		return err
	}
	s.log.Info("feature deleted", zap.String("feature_id", item.ID.String()))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Feature, error) {
	featureID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, featureID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func toResponse(f *domain.Feature) domain.Response {
	return domain.Response{
		ID:              f.ID.String(),
		ProductID:       f.ProductID.String(),
		Name:            f.Name,
		Description:     f.Description,
		Nominal:         f.Nominal,
		ToleranceMinus:  f.ToleranceMinus,
		TolerancePlus:   f.TolerancePlus,
		Unit:            f.Unit,
		MeasurementType: f.MeasurementType,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func normalizeMeasurementType(value domain.MeasurementType) (domain.MeasurementType, error) {
	switch mt := domain.MeasurementType(strings.ToLower(strings.TrimSpace(string(value)))); mt {
	case "":
		return domain.MeasurementTypeDimension, nil
	case domain.MeasurementTypeDimension,
		domain.MeasurementTypeSurface,
		domain.MeasurementTypeGeometric,
		domain.MeasurementTypeOptical,
		domain.MeasurementTypeTemporal,
		domain.MeasurementTypeOther:
		return mt, nil
	default:
		return "", domain.ErrInvalidType
	}
}

func checkFinite(values ...*float64) error {
	for _, v := range values {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return domain.ErrInvalidNumber
		}
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
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
