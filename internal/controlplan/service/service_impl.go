package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/controlplan/domain"
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
		log:   p.Log.Named("controlplan.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
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

	exists, err := s.repo.ProductExists(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrProductMissing
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	plan := &domain.ControlPlan{
		ID:          s.genID.Generate(),
		ProductID:   productID,
		Name:        name,
		Description: trimmedOrNil(req.Description),
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, plan); err != nil {
		return nil, err
	}

	s.log.Info("control plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("product_id", productID.String()),
	)
	return s.Get(ctx, plan.ID.String())
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListFilter{Active: req.Active}
	if productID := strings.TrimSpace(req.ProductID); productID != "" {
		parsed, err := parseID(productID)
		if err != nil {
			return nil, domain.ErrInvalidProduct
		}
		filter.ProductID = parsed.Int64()
	}

	rows, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(rows))
	for i := range rows {
		resp = append(resp, toResponse(&rows[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	planID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	row, err := s.repo.FindRow(ctx, s.db, planID.Int64())
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(row)
	return &resp, nil
}

// Update edits a plan. Setting Active alone is how plans are toggled on
// and off for ingestion.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	plan, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		plan.Name = name
	}
	if req.Description != nil {
		plan.Description = trimmedOrNil(req.Description)
	}
	if req.Active != nil && *req.Active != plan.Active {
		plan.Active = *req.Active
		s.log.Info("control plan toggled",
			zap.String("plan_id", plan.ID.String()),
			zap.Bool("active", plan.Active),
		)
	}

	plan.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, plan); err != nil {
		return nil, err
	}
	return s.Get(ctx, plan.ID.String())
}

func (s *Service) Delete(ctx context.Context, id string) error {
	plan, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, s.db, plan.ID.Int64()); err != nil {
		return err
	}
	s.log.Info("control plan deleted", zap.String("plan_id", plan.ID.String()))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.ControlPlan, error) {
	planID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	plan, err := s.repo.FindByID(ctx, s.db, planID.Int64())
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}

func toResponse(row *domain.PlanRow) domain.Response {
	return domain.Response{
		ID:           row.ID.String(),
		ProductID:    row.ProductID.String(),
		ProductCode:  row.ProductCode,
		ProductName:  row.ProductName,
		Name:         row.Name,
		Description:  row.Description,
		Active:       row.Active,
		FeatureCount: row.FeatureCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
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
