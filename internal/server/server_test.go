package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	analysissvc "github.com/smallbiznis/spacial/internal/analysis/service"
	"github.com/smallbiznis/spacial/internal/clock"
	"github.com/smallbiznis/spacial/internal/config"
	planrepo "github.com/smallbiznis/spacial/internal/controlplan/repository"
	plansvc "github.com/smallbiznis/spacial/internal/controlplan/service"
	dashboardrepo "github.com/smallbiznis/spacial/internal/dashboard/repository"
	dashboardsvc "github.com/smallbiznis/spacial/internal/dashboard/service"
	featurerepo "github.com/smallbiznis/spacial/internal/feature/repository"
	featuresvc "github.com/smallbiznis/spacial/internal/feature/service"
	measurementrepo "github.com/smallbiznis/spacial/internal/measurement/repository"
	measurementsvc "github.com/smallbiznis/spacial/internal/measurement/service"
	"github.com/smallbiznis/spacial/internal/observability"
	bindingrepo "github.com/smallbiznis/spacial/internal/planfeature/repository"
	bindingsvc "github.com/smallbiznis/spacial/internal/planfeature/service"
	productrepo "github.com/smallbiznis/spacial/internal/product/repository"
	productsvc "github.com/smallbiznis/spacial/internal/product/service"
	"github.com/smallbiznis/spacial/internal/providers/pdf"
	"github.com/smallbiznis/spacial/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts ...func(*ServerParams)) *Server {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	log := zap.NewNop()
	fc := clock.NewFakeClock(time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC))

	plans := plansvc.New(plansvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: planrepo.Provide()})
	bindings := bindingsvc.New(bindingsvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: bindingrepo.Provide()})
	measurements := measurementsvc.NewService(measurementsvc.ServiceParam{DB: db, Log: log, GenID: node, Clock: fc, Repo: measurementrepo.Provide()})

	params := ServerParams{
		Gin:            NewEngine(observability.Config{LogLevel: "info", Environment: "test"}, nil),
		Cfg:            config.Config{Environment: "test"},
		DB:             db,
		ProductSvc:     productsvc.New(productsvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: productrepo.Provide()}),
		FeatureSvc:     featuresvc.New(featuresvc.Params{DB: db, Log: log, GenID: node, Clock: fc, Repo: featurerepo.Provide()}),
		PlanSvc:        plans,
		BindingSvc:     bindings,
		MeasurementSvc: measurements,
		AnalysisSvc: analysissvc.New(analysissvc.Params{
			Log:          log,
			Clock:        fc,
			SPCConfig:    config.NewStaticSPCConfigHolder(config.DefaultSPCConfig()),
			Plans:        plans,
			Bindings:     bindings,
			Measurements: measurements,
			PDF:          pdf.New(),
		}),
		DashboardSvc: dashboardsvc.New(dashboardsvc.Params{DB: db, Log: log, Clock: fc, Repo: dashboardrepo.Provide()}),
	}
	for _, opt := range opts {
		opt(&params)
	}
	return NewServer(params)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

func do(t *testing.T, s *Server, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != "application/pdf" && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type idResponse struct {
	ID string `json:"id"`
}

type seeded struct {
	product string
	plan    string
	feature string
}

func seedBinding(t *testing.T, s *Server) seeded {
	t.Helper()
	rec, env := do(t, s, http.MethodPost, "/api/products", gin.H{"code": "ax-900", "name": "Axle housing"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[idResponse](t, env.Data).ID

	rec, env = do(t, s, http.MethodPost, "/api/features", gin.H{"product_id": product, "name": "Bore diameter"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	feature := decode[idResponse](t, env.Data).ID

	rec, env = do(t, s, http.MethodPost, "/api/plans", gin.H{"product_id": product, "name": "Final inspection"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plan := decode[idResponse](t, env.Data).ID

	rec, _ = do(t, s, http.MethodPost, "/api/plans/"+plan+"/features", gin.H{
		"feature_id": feature, "target": 100, "usl": 110, "lsl": 90,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return seeded{product: product, plan: plan, feature: feature}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	s := newTestServer(t)
	rec, env := do(t, s, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Type)
}

func TestRecordAndChart(t *testing.T) {
	s := newTestServer(t)
	b := seedBinding(t, s)
	base := "/api/plans/" + b.plan + "/features/" + b.feature

	for _, v := range []float64{99, 100, 107.5} {
		rec, _ := do(t, s, http.MethodPost, base+"/measurements", gin.H{"serial_number": " SN-1 ", "value": v}, HeaderOperator, "op-7")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, env := do(t, s, http.MethodGet, base+"/measurements?page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Measurements []struct {
			SerialNumber string `json:"serial_number"`
			Operator     string `json:"operator"`
		} `json:"measurements"`
	}](t, env.Data)
	require.Len(t, page.Measurements, 2)
	assert.Equal(t, "SN-1", page.Measurements[0].SerialNumber)
	assert.Equal(t, "op-7", page.Measurements[0].Operator)

	rec, env = do(t, s, http.MethodGet, base+"/spc?recent=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	chart := decode[struct {
		Series struct {
			Points  []struct{ Status string } `json:"points"`
			Summary struct {
				TotalCount int `json:"total_count"`
			} `json:"summary"`
		} `json:"series"`
		Recent       []json.RawMessage `json:"recent"`
		RecentWindow int               `json:"recent_window"`
	}](t, env.Data)
	assert.Equal(t, 3, chart.Series.Summary.TotalCount)
	assert.Len(t, chart.Recent, 2)
	assert.Equal(t, 2, chart.RecentWindow)
	assert.Equal(t, "warning", chart.Series.Points[2].Status)
}

func TestRecordMeasurement_Errors(t *testing.T) {
	s := newTestServer(t)
	b := seedBinding(t, s)
	base := "/api/plans/" + b.plan + "/features/" + b.feature + "/measurements"

	rec, env := do(t, s, http.MethodPost, base, gin.H{"serial_number": "SN-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_value", env.Error.Errors[0].Code)

	rec, env = do(t, s, http.MethodPost, base, gin.H{"serial_number": "  ", "value": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_serial_number", env.Error.Errors[0].Code)

	active := false
	rec, _ = do(t, s, http.MethodPatch, "/api/plans/"+b.plan, gin.H{"active": &active})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, s, http.MethodPost, base, gin.H{"serial_number": "SN-1", "value": 100})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "this control plan is inactive", env.Error.Message)
}

func TestBindingConflictAndIncompleteChart(t *testing.T) {
	s := newTestServer(t)
	b := seedBinding(t, s)

	rec, env := do(t, s, http.MethodPost, "/api/plans/"+b.plan+"/features", gin.H{"feature_id": b.feature})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", env.Error.Type)

	rec, _ = do(t, s, http.MethodPatch, "/api/plans/"+b.plan+"/features/"+b.feature, gin.H{"target": 100, "lsl": 90})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = do(t, s, http.MethodGet, "/api/plans/"+b.plan+"/features/"+b.feature+"/spc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "incomplete_binding", env.Error.Type)

	rec, env = do(t, s, http.MethodGet, "/api/plans/"+b.plan+"/features/"+b.feature+"/spc?recent=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_recent", env.Error.Errors[0].Code)
}

func TestChartForUnboundFeature(t *testing.T) {
	s := newTestServer(t)
	b := seedBinding(t, s)

	rec, env := do(t, s, http.MethodPost, "/api/features", gin.H{"product_id": b.product, "name": "Flatness"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	flatness := decode[idResponse](t, env.Data).ID

	rec, env = do(t, s, http.MethodGet, "/api/plans/"+b.plan+"/features/"+flatness+"/spc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "incomplete_binding", env.Error.Type)

	rec, _ = do(t, s, http.MethodGet, "/api/plans/12345/features/"+flatness+"/spc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProductInUse(t *testing.T) {
	s := newTestServer(t)
	b := seedBinding(t, s)

	rec, env := do(t, s, http.MethodDelete, "/api/products/"+b.product, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "product still has features or control plans", env.Error.Message)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodGet, "/api/plans/12345", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "control plan not found", env.Error.Message)
}

func TestExportReport(t *testing.T) {
	s := newTestServer(t)
	b := seedBinding(t, s)
	base := "/api/plans/" + b.plan + "/features/" + b.feature

	rec, _ := do(t, s, http.MethodPost, base+"/measurements", gin.H{"serial_number": "SN-1", "value": 101, "operator": "op-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, s, http.MethodGet, base+"/spc/report.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="spc-ax-900-final-inspection-bore-diameter-20260302.pdf"`)
	assert.NotEmpty(t, rec.Header().Get("X-Report-Number"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	seedBinding(t, s)

	rec, env := do(t, s, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[struct {
		Counts struct {
			Products    int64 `json:"products"`
			ActivePlans int64 `json:"active_plans"`
		} `json:"counts"`
	}](t, env.Data)
	assert.Equal(t, int64(1), overview.Counts.Products)
	assert.Equal(t, int64(1), overview.Counts.ActivePlans)
}

func TestClassifyErrorForLog(t *testing.T) {
	typ, code := classifyErrorForLog(ErrRateLimited)
	assert.Equal(t, "rate_limited", typ)
	assert.Equal(t, "rate_limited", code)

	typ, code = classifyErrorForLog(invalidRequestError())
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "invalid_request", code)
}
