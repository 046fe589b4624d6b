package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsched/scheduler/internal/dto"
	"github.com/labsched/scheduler/internal/models"
	appErrors "github.com/labsched/scheduler/pkg/errors"
)

type runServiceMock struct {
	submitResp *dto.SubmitRunResponse
	submitErr  error
	statusResp *dto.RunStatusResponse
	statusErr  error
	listResp   []dto.RunSummary
	slotsResp  []models.RunSlot
	slotsErr   error
	exportBody []byte
	exportType string
	exportErr  error
	deleteErr  error
}

func (m *runServiceMock) Submit(ctx context.Context, req dto.SubmitRunRequest) (*dto.SubmitRunResponse, error) {
	return m.submitResp, m.submitErr
}

func (m *runServiceMock) Status(ctx context.Context, runID string) (*dto.RunStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *runServiceMock) List(ctx context.Context) ([]dto.RunSummary, error) {
	return m.listResp, nil
}

func (m *runServiceMock) Slots(ctx context.Context, runID string) ([]models.RunSlot, error) {
	return m.slotsResp, m.slotsErr
}

func (m *runServiceMock) Export(ctx context.Context, runID, format string) ([]byte, string, error) {
	return m.exportBody, m.exportType, m.exportErr
}

func (m *runServiceMock) Delete(ctx context.Context, runID string) error {
	return m.deleteErr
}

func TestRunHandlerGenerateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/runs", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Generate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunHandlerGenerateAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{submitResp: &dto.SubmitRunResponse{RunID: "run-1", Status: "QUEUED"}}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SubmitRunRequest{})
	req, _ := http.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Generate(c)
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestRunHandlerGeneratePropagatesServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{submitErr: appErrors.ErrInputInvalid}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.SubmitRunRequest{})
	req, _ := http.NewRequest(http.MethodPost, "/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Generate(c)
	assert.NotEqual(t, http.StatusAccepted, w.Code)
}

func TestRunHandlerStatusReturnsOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{statusResp: &dto.RunStatusResponse{RunID: "run-1", Status: "RUNNING"}}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/runs/run-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Status(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunHandlerStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{statusErr: appErrors.ErrNotFound}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/runs/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Status(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHandlerSlotsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{slotsErr: appErrors.ErrNotFound}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/runs/missing/slots", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Slots(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHandlerExportReturnsBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{exportBody: []byte("classId\n"), exportType: "text/csv"}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/runs/run-1/export", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Export(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "classId\n", w.Body.String())
}

func TestRunHandlerExportPropagatesServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{exportErr: appErrors.ErrNotFound}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/runs/missing/export", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Export(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunHandlerDeleteNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/runs/run-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRunHandlerListReturnsOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &RunHandler{service: &runServiceMock{listResp: []dto.RunSummary{{ID: "run-1"}}}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/runs", nil)
	c.Request = req

	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
