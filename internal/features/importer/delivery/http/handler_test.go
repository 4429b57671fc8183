package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"data-importer-backend/internal/features/importer/models"
	"data-importer-backend/internal/features/importer/service"
)

type fakeImportService struct {
	startID   string
	startErr  error
	report    *models.Report
	reportErr error
}

func (f *fakeImportService) Start(ctx context.Context) (string, error) {
	return f.startID, f.startErr
}

func (f *fakeImportService) Run(ctx context.Context) (*models.Report, error) {
	return f.report, f.reportErr
}

func (f *fakeImportService) DryRun(ctx context.Context) (*models.Report, error) {
	return f.report, f.reportErr
}

func (f *fakeImportService) Report(ctx context.Context, runID string) (*models.Report, error) {
	return f.report, f.reportErr
}

func setupRouter(svc service.ImportService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewImportHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestStartImport(t *testing.T) {
	router := setupRouter(&fakeImportService{startID: "run-123"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/start", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-123", body["run_id"])
	assert.Equal(t, "started", body["status"])
}

func TestStartImportConcurrent(t *testing.T) {
	router := setupRouter(&fakeImportService{startErr: service.ErrConcurrentRun})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/start", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDryRun(t *testing.T) {
	report := &models.Report{RunID: "run-dry", Status: models.RunStatusCompleted, DryRun: true}
	router := setupRouter(&fakeImportService{report: report})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/dry-run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "run-dry", got.RunID)
	assert.True(t, got.DryRun)
}

func TestDryRunFailedStillReturnsReport(t *testing.T) {
	report := &models.Report{RunID: "run-failed", Status: models.RunStatusFailed, Error: "fetch failed"}
	router := setupRouter(&fakeImportService{report: report, reportErr: assertError{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/dry-run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.NotEmpty(t, got.Error)
}

func TestImportStatus(t *testing.T) {
	report := &models.Report{RunID: "run-123", Status: models.RunStatusCompleted}
	router := setupRouter(&fakeImportService{report: report})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/status/run-123", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.RunStatusCompleted, got.Status)
}

func TestImportStatusNotFound(t *testing.T) {
	router := setupRouter(&fakeImportService{reportErr: service.ErrRunNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/status/unknown", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

type assertError struct{}

func (assertError) Error() string { return "import run failed" }
