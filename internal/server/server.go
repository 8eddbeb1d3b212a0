package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/spacial/internal/analysis"
	analysisdomain "github.com/smallbiznis/spacial/internal/analysis/domain"
	"github.com/smallbiznis/spacial/internal/config"
	"github.com/smallbiznis/spacial/internal/controlplan"
	plandomain "github.com/smallbiznis/spacial/internal/controlplan/domain"
	"github.com/smallbiznis/spacial/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/spacial/internal/dashboard/domain"
	"github.com/smallbiznis/spacial/internal/feature"
	featuredomain "github.com/smallbiznis/spacial/internal/feature/domain"
	"github.com/smallbiznis/spacial/internal/measurement"
	measurementdomain "github.com/smallbiznis/spacial/internal/measurement/domain"
	"github.com/smallbiznis/spacial/internal/observability"
	obsmiddleware "github.com/smallbiznis/spacial/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/spacial/internal/observability/metrics"
	obstracing "github.com/smallbiznis/spacial/internal/observability/tracing"
	"github.com/smallbiznis/spacial/internal/planfeature"
	bindingdomain "github.com/smallbiznis/spacial/internal/planfeature/domain"
	"github.com/smallbiznis/spacial/internal/product"
	productdomain "github.com/smallbiznis/spacial/internal/product/domain"
	"github.com/smallbiznis/spacial/internal/providers/pdf"
	"github.com/smallbiznis/spacial/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	product.Module,
	feature.Module,
	controlplan.Module,
	planfeature.Module,
	measurement.Module,
	pdf.Module,
	analysis.Module,
	dashboard.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB

	productSvc     productdomain.Service
	featureSvc     featuredomain.Service
	planSvc        plandomain.Service
	bindingSvc     bindingdomain.Service
	measurementSvc measurementdomain.Service
	analysisSvc    analysisdomain.Service
	dashboardSvc   dashboarddomain.Service

	obsMetrics    *obsmetrics.Metrics
	ingestLimiter *ratelimit.IngestLimiter
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config
	DB  *gorm.DB

	ProductSvc     productdomain.Service
	FeatureSvc     featuredomain.Service
	PlanSvc        plandomain.Service
	BindingSvc     bindingdomain.Service
	MeasurementSvc measurementdomain.Service
	AnalysisSvc    analysisdomain.Service
	DashboardSvc   dashboarddomain.Service

	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
	IngestLimiter *ratelimit.IngestLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,

		productSvc:     p.ProductSvc,
		featureSvc:     p.FeatureSvc,
		planSvc:        p.PlanSvc,
		bindingSvc:     p.BindingSvc,
		measurementSvc: p.MeasurementSvc,
		analysisSvc:    p.AnalysisSvc,
		dashboardSvc:   p.DashboardSvc,

		obsMetrics:    p.ObsMetrics,
		ingestLimiter: p.IngestLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(OperatorContext())

	// -------- Dashboard --------
	api.GET("/dashboard", s.GetDashboard)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)
	api.DELETE("/products/:id", s.DeleteProduct)

	// -------- Features --------
	api.GET("/features", s.ListFeatures)
	api.POST("/features", s.CreateFeature)
	api.GET("/features/:id", s.GetFeatureByID)
	api.PATCH("/features/:id", s.UpdateFeature)
	api.DELETE("/features/:id", s.DeleteFeature)

	// -------- Control plans --------
	api.GET("/plans", s.ListPlans)
	api.POST("/plans", s.CreatePlan)
	api.GET("/plans/:id", s.GetPlanByID)
	api.PATCH("/plans/:id", s.UpdatePlan)
	api.DELETE("/plans/:id", s.DeletePlan)
	api.GET("/plans/:id/spc", s.GetPlanSummary)

	// -------- Bindings --------
	api.GET("/plans/:id/features", s.ListPlanFeatures)
	api.POST("/plans/:id/features", s.BindPlanFeature)
	api.GET("/plans/:id/features/available", s.ListAvailablePlanFeatures)
	api.GET("/plans/:id/features/:feature_id", s.GetPlanFeature)
	api.PATCH("/plans/:id/features/:feature_id", s.UpdatePlanFeatureLimits)
	api.DELETE("/plans/:id/features/:feature_id", s.UnbindPlanFeature)

	// -------- Measurements & SPC --------
	api.GET("/plans/:id/features/:feature_id/measurements", s.ListMeasurements)
	api.POST("/plans/:id/features/:feature_id/measurements", s.IngestRateLimit(), s.RecordMeasurement)
	api.GET("/plans/:id/features/:feature_id/spc", s.GetChart)
	api.GET("/plans/:id/features/:feature_id/spc/report.pdf", s.ExportReport)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
