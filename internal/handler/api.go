package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"data-preparation/internal/models"
	"data-preparation/internal/repository"
	"data-preparation/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultListLimit = 50

// RunService is the part of the processor the API exposes.
type RunService interface {
	StartRun(ctx context.Context) (string, error)
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	GetSplitCounts(ctx context.Context, id string) ([]models.SplitCount, error)
}

// Handler handles HTTP requests
type Handler struct {
	runs   RunService
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(runs RunService, logger *zap.Logger) *Handler {
	return &Handler{
		runs:   runs,
		logger: logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/runs", h.StartRun)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
		api.GET("/runs/:id/summary", h.GetSummary)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// StartRun starts reading every configured dataset in the background
func (h *Handler) StartRun(c *gin.Context) {
	runID, err := h.runs.StartRun(c.Request.Context())
	if errors.Is(err, service.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Failed to start run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":  runID,
		"status":  models.RunPending,
		"message": "Run started. Check /api/v1/runs/" + runID + " for status",
	})
}

// ListRuns returns the most recent runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// GetRun returns run status
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetSummary returns row counts per dataset, split and label
func (h *Handler) GetSummary(c *gin.Context) {
	runID := c.Param("id")
	counts, err := h.runs.GetSplitCounts(c.Request.Context(), runID)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"groups": counts,
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "data-preparation",
	})
}

func (h *Handler) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	h.logger.Error("Failed to get run", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
}
