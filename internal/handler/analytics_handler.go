package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/okhotin/shortly/internal/repository"
	"github.com/okhotin/shortly/internal/service"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analytics service.AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger,
	}
}

type SummaryRequest struct {
	ShortCode string `json:"short_code" binding:"required"`
	Days      int    `json:"days,omitempty"`
}

// Summarize обрабатывает POST /api/v1/analytics
func (h *AnalyticsHandler) Summarize(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid analytics request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	summary, err := h.analytics.Summarize(c.Request.Context(), req.ShortCode, req.Days)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to build summary", zap.String("code", req.ShortCode), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to build summary",
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
