package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labsched/scheduler/internal/dto"
	"github.com/labsched/scheduler/internal/models"
	"github.com/labsched/scheduler/internal/service"
	appErrors "github.com/labsched/scheduler/pkg/errors"
	"github.com/labsched/scheduler/pkg/response"
)

type runGenerator interface {
	Submit(ctx context.Context, req dto.SubmitRunRequest) (*dto.SubmitRunResponse, error)
	Status(ctx context.Context, runID string) (*dto.RunStatusResponse, error)
	List(ctx context.Context) ([]dto.RunSummary, error)
	Slots(ctx context.Context, runID string) ([]models.RunSlot, error)
	Export(ctx context.Context, runID, format string) ([]byte, string, error)
	Delete(ctx context.Context, runID string) error
}

// RunHandler exposes the scheduling core over HTTP.
type RunHandler struct {
	service runGenerator
}

// NewRunHandler constructs the handler.
func NewRunHandler(svc *service.RunService) *RunHandler {
	return &RunHandler{service: svc}
}

// Generate godoc
// @Summary Queue a scheduling problem for async solving
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRunRequest true "Scheduling input"
// @Success 202 {object} response.Envelope
// @Router /runs [post]
func (h *RunHandler) Generate(c *gin.Context) {
	var req dto.SubmitRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// Status godoc
// @Summary Poll a queued or solved run
// @Tags Scheduler
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /runs/{id} [get]
func (h *RunHandler) Status(c *gin.Context) {
	result, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List persisted runs
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /runs [get]
func (h *RunHandler) List(c *gin.Context) {
	runs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

// Slots godoc
// @Summary Get the calendar a run produced
// @Tags Scheduler
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /runs/{id}/slots [get]
func (h *RunHandler) Slots(c *gin.Context) {
	slots, err := h.service.Slots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Export godoc
// @Summary Export a run's calendar as CSV or PDF
// @Tags Scheduler
// @Produce application/octet-stream
// @Param id path string true "Run ID"
// @Param format query string false "csv or pdf, defaults to csv"
// @Success 200 {file} binary
// @Router /runs/{id}/export [get]
func (h *RunHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	body, contentType, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, body)
}

// Delete godoc
// @Summary Delete a persisted run
// @Tags Scheduler
// @Param id path string true "Run ID"
// @Success 204
// @Router /runs/{id} [delete]
func (h *RunHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
