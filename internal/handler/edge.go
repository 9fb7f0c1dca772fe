package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/upstream/supabase"
)

// EdgeHandler covers the routes that are pure forwards to Supabase Edge
// Functions: match checking and analytics event ingestion. Neither is rate
// limited in this layer.
type EdgeHandler struct {
	supabase *supabase.Client
}

func NewEdgeHandler(sb *supabase.Client) *EdgeHandler {
	return &EdgeHandler{supabase: sb}
}

// Handles POST /api/check-match. The matching logic itself runs on the edge
// function with the service-role key.
func (h *EdgeHandler) CheckMatch(c *gin.Context) {
	if h.supabase == nil {
		notConfigured(c, "supabase")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var probe struct {
		SessionID     string `json:"sessionId"`
		CandidateID   string `json:"candidateId"`
		ParticipantID string `json:"participantId"`
	}
	if err := json.Unmarshal(body, &probe); err != nil ||
		probe.SessionID == "" || probe.CandidateID == "" || probe.ParticipantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId, candidateId and participantId are required"})
		return
	}

	result, err := h.supabase.Invoke(c.Request.Context(), "check-match", body, true)
	if err != nil {
		upstreamError(c, "Failed to check match", err)
		return
	}

	c.Data(result.StatusCode, "application/json", result.Body)
}

// Handles POST /api/analytics, forwarding arbitrary event batches.
func (h *EdgeHandler) Analytics(c *gin.Context) {
	if h.supabase == nil {
		notConfigured(c, "supabase")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.supabase.Invoke(c.Request.Context(), "track-analytics", body, false)
	if err != nil {
		upstreamError(c, "Failed to record analytics", err)
		return
	}

	c.Data(result.StatusCode, "application/json", result.Body)
}
