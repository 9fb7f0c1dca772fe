package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/service"
)

type StatsHandler struct {
	stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Handles GET /api/cost-stats?days=N
func (h *StatsHandler) CostStats(c *gin.Context) {
	summary, err := h.stats.CostStats(c.Request.Context(), parseDays(c, 1))
	if err != nil {
		upstreamError(c, "Failed to compute cost stats", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Handles GET /api/openai-stats?days=N
func (h *StatsHandler) OpenAIStats(c *gin.Context) {
	summary, err := h.stats.OpenAIStats(c.Request.Context(), parseDays(c, 7))
	if err != nil {
		upstreamError(c, "Failed to compute openai stats", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func parseDays(c *gin.Context, fallback int) int {
	days := fallback
	if daysStr := c.Query("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 && d <= 365 {
			days = d
		}
	}
	return days
}
