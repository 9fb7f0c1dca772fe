package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/upstream/anthropic"
)

type ChatHandler struct {
	anthropic *anthropic.Client
}

func NewChatHandler(client *anthropic.Client) *ChatHandler {
	return &ChatHandler{anthropic: client}
}

type chatRequest struct {
	Messages []anthropic.Message `json:"messages"`
}

// Handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	if h.anthropic == nil {
		notConfigured(c, "anthropic")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Messages are required"})
		return
	}

	reply, err := h.anthropic.Converse(c.Request.Context(), req.Messages)
	if err != nil {
		upstreamError(c, "Failed to generate a reply", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": reply})
}

// Handles POST /api/chat-extract-filters. Extraction is best-effort: empty
// input and unparseable model output both fall back to the default filters
// rather than erroring.
func (h *ChatHandler) ExtractFilters(c *gin.Context) {
	if h.anthropic == nil {
		notConfigured(c, "anthropic")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusOK, anthropic.DefaultFilters())
		return
	}

	filters, err := h.anthropic.ExtractFilters(c.Request.Context(), req.Messages)
	if err != nil {
		log.Printf("[%s] Filter extraction fell back to defaults: %v", c.GetString("request_id"), err)
	}

	c.JSON(http.StatusOK, filters)
}
