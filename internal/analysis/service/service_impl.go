package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	analysisdomain "github.com/smallbiznis/spacial/internal/analysis/domain"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/config"
	plandomain "github.com/smallbiznis/spacial/internal/controlplan/domain"
	measurementdomain "github.com/smallbiznis/spacial/internal/measurement/domain"
	"github.com/smallbiznis/spacial/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/spacial/internal/observability/metrics"
	bindingdomain "github.com/smallbiznis/spacial/internal/planfeature/domain"
	"github.com/smallbiznis/spacial/internal/providers/pdf"
	"github.com/smallbiznis/spacial/internal/spc"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	SPCConfig    *config.SPCConfigHolder
	Plans        plandomain.Service
	Bindings     bindingdomain.Service
	Measurements measurementdomain.Service
	PDF          pdf.Provider
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log *zap.Logger

	clock        clock.Clock
	spcConfig    *config.SPCConfigHolder
	plans        plandomain.Service
	bindings     bindingdomain.Service
	measurements measurementdomain.Service
	pdf          pdf.Provider
	obsMetrics   *obsmetrics.Metrics
}

func New(p Params) analysisdomain.Service {
	return &Service{
		log: p.Log.Named("analysis.service"),

		clock:        p.Clock,
		spcConfig:    p.SPCConfig,
		plans:        p.Plans,
		bindings:     p.Bindings,
		measurements: p.Measurements,
		pdf:          p.PDF,
		obsMetrics:   p.ObsMetrics,
	}
}

func (s *Service) Evaluate(ctx context.Context, sel analysisdomain.Selector) (*spc.Report, error) {
	binding, err := s.binding(ctx, sel)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, binding)
}

// Chart evaluates the full sequence and attaches the trailing window used
// for tabular display. recent == 0 uses the configured window; negative values are rejected.
func (s *Service) Chart(ctx context.Context, sel analysisdomain.Selector, recent int) (*analysisdomain.Chart, error) {
	if recent < 0 {
		return nil, analysisdomain.ErrInvalidRecent
	}

	header, binding, err := s.header(ctx, sel)
	if err != nil {
		return nil, err
	}
	report, err := s.evaluate(ctx, binding)
	if err != nil {
		return nil, err
	}

	if recent == 0 {
		recent = s.spcConfig.Get().RecentWindow
	}
	series := spc.Project(report)
	return &analysisdomain.Chart{
		Header:       *header,
		Series:       series,
		Recent:       series.Recent(recent),
		RecentWindow: recent,
	}, nil
}

// PlanSummary evaluates every feature bound to the plan. Incomplete
// bindings are listed without statistics.
func (s *Service) PlanSummary(ctx context.Context, planID string) (*analysisdomain.PlanSummary, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	bindings, err := s.bindings.List(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	out := &analysisdomain.PlanSummary{
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		Active:      plan.Active,
		ProductCode: plan.ProductCode,
		ProductName: plan.ProductName,
		Features:    make([]analysisdomain.FeatureSummary, 0, len(bindings)),
	}
	for i := range bindings {
		b := &bindings[i]
		row := analysisdomain.FeatureSummary{
			FeatureID:   b.FeatureID,
			FeatureName: b.FeatureName,
			Unit:        b.Unit,
			Complete:    b.Complete,
			Target:      b.Target,
			USL:         b.USL,
			LSL:         b.LSL,
		}
		report, err := s.evaluate(ctx, b)
		switch {
		case errors.Is(err, spc.ErrIncompleteBinding):
		case err != nil:
			return nil, err
		default:
			summary := spc.Project(report).Summary
			row.Summary = &summary
		}
		out.Features = append(out.Features, row)
	}
	return out, nil
}

func (s *Service) ExportPDF(ctx context.Context, sel analysisdomain.Selector) (*analysisdomain.Export, error) {
	header, binding, err := s.header(ctx, sel)
	if err != nil {
		return nil, err
	}
	report, err := s.evaluate(ctx, binding)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	series := spc.Project(report)
	data := pdf.SPCReport{
		ReportNumber: pdf.NewReportNumber(now),
		GeneratedAt:  now,
		ProductCode:  header.ProductCode,
		ProductName:  header.ProductName,
		PlanName:     header.PlanName,
		FeatureName:  header.FeatureName,
		Unit:         header.Unit,
		Target:       formatValue(report.Target),
		USL:          formatValue(report.USL),
		LSL:          formatValue(report.LSL),
		Mean:         series.Summary.Display.Mean,
		StdDev:       series.Summary.Display.StdDev,
		Cpk:          series.Summary.Display.Cpk,
		OutOfSpec:    series.Summary.Display.OutOfSpec,
	}
	for _, p := range series.Recent(s.spcConfig.Get().RecentWindow) {
		data.Rows = append(data.Rows, pdf.SPCReportRow{
			Index:        p.Index,
			SerialNumber: p.SerialNumber,
			Value:        formatValue(p.Value),
			Status:       string(p.Status),
			Operator:     p.Operator,
			Timestamp:    p.Timestamp.UTC().Format(time.DateTime),
		})
	}

	r, err := s.pdf.GenerateSPCReport(ctx, data)
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordReport(ctx, "pdf")
	logger.WithContext(ctx, s.log).Info("spc report rendered",
		zap.String("report_number", data.ReportNumber),
		zap.String("plan_id", header.PlanID),
		zap.String("feature_id", header.FeatureID),
	)
	return &analysisdomain.Export{
		Filename:     pdf.Filename(header.ProductCode, header.PlanName, header.FeatureName, now),
		ReportNumber: data.ReportNumber,
		ContentType:  "application/pdf",
		Content:      content,
	}, nil
}

// binding resolves the selected pair. A feature that is not bound to an
// existing plan has no limits to evaluate against.
func (s *Service) binding(ctx context.Context, sel analysisdomain.Selector) (*bindingdomain.Response, error) {
	binding, err := s.bindings.Get(ctx, sel.PlanID, sel.FeatureID)
	if !errors.Is(err, bindingdomain.ErrBindingNotFound) {
		return binding, err
	}
	if _, err := s.plans.Get(ctx, sel.PlanID); err != nil {
		return nil, err
	}
	s.obsMetrics.RecordEvaluation(ctx, "incomplete_binding")
	return nil, spc.ErrIncompleteBinding
}

func (s *Service) header(ctx context.Context, sel analysisdomain.Selector) (*analysisdomain.Header, *bindingdomain.Response, error) {
	binding, err := s.binding(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.plans.Get(ctx, binding.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return &analysisdomain.Header{
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		PlanActive:      plan.Active,
		ProductID:       plan.ProductID,
		ProductCode:     plan.ProductCode,
		ProductName:     plan.ProductName,
		FeatureID:       binding.FeatureID,
		FeatureName:     binding.FeatureName,
		Unit:            binding.Unit,
		MeasurementType: binding.MeasurementType,
	}, binding, nil
}

func (s *Service) evaluate(ctx context.Context, binding *bindingdomain.Response) (*spc.Report, error) {
	limits := spc.Limits{Target: binding.Target, USL: binding.USL, LSL: binding.LSL}
	if !limits.Complete() {
		s.obsMetrics.RecordEvaluation(ctx, "incomplete_binding")
		return nil, spc.ErrIncompleteBinding
	}

	items, err := s.measurements.Series(ctx, binding.PlanID, binding.FeatureID)
	if err != nil {
		return nil, err
	}

	report, err := spc.Evaluate(
		measurementdomain.Samples(items),
		limits,
		spc.WithOrderCheck(s.spcConfig.Get().OrderCheck),
	)
	if err != nil {
		s.obsMetrics.RecordEvaluation(ctx, evaluationResult(err))
		if errors.Is(err, spc.ErrUnordered) {
			logger.WithContext(ctx, s.log).Error("measurement series out of order",
				zap.String("plan_id", binding.PlanID),
				zap.String("feature_id", binding.FeatureID),
			)
		}
		return nil, err
	}
	s.obsMetrics.RecordEvaluation(ctx, "ok")
	return report, nil
}

func evaluationResult(err error) string {
	switch {
	case errors.Is(err, spc.ErrIncompleteBinding):
		return "incomplete_binding"
	case errors.Is(err, spc.ErrUnordered):
		return "unordered"
	default:
		return "error"
	}
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
