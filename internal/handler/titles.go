package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/upstream/watchmode"
)

type TitlesHandler struct {
	watchmode *watchmode.Client
}

func NewTitlesHandler(client *watchmode.Client) *TitlesHandler {
	return &TitlesHandler{watchmode: client}
}

// Handles POST /api/discover-titles
func (h *TitlesHandler) Discover(c *gin.Context) {
	if h.watchmode == nil {
		notConfigured(c, "watchmode")
		return
	}

	var req struct {
		Genres    []int `json:"genres"`
		SourceIDs []int `json:"sourceIds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	titles, err := h.watchmode.ListTitles(c.Request.Context(), req.Genres, req.SourceIDs)
	if err != nil {
		upstreamError(c, "Failed to discover titles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"titles": titles})
}
