package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/upstream/places"
	"github.com/choosing-sucks/gateway/internal/upstream/supabase"
	"github.com/choosing-sucks/gateway/internal/validate"
)

type PlacesHandler struct {
	supabase *supabase.Client
	places   *places.Client
}

func NewPlacesHandler(sb *supabase.Client, pl *places.Client) *PlacesHandler {
	return &PlacesHandler{supabase: sb, places: pl}
}

// Handles POST /api/places-search. The session's search runs on the edge
// function side, so only the session ID is checked here before forwarding
// the original body.
func (h *PlacesHandler) Search(c *gin.Context) {
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
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || validate.SessionID(probe.SessionID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	result, err := h.supabase.Invoke(c.Request.Context(), "places-search", body, false)
	if err != nil {
		upstreamError(c, "Failed to search places", err)
		return
	}

	c.Data(result.StatusCode, "application/json", result.Body)
}

// Handles POST /api/discover-places
func (h *PlacesHandler) Discover(c *gin.Context) {
	if h.places == nil {
		notConfigured(c, "google places")
		return
	}

	var req struct {
		Lat                 *float64 `json:"lat"`
		Lng                 *float64 `json:"lng"`
		Radius              float64  `json:"radius"`
		Keywords            []string `json:"keywords"`
		SelectedPriceLevels []int    `json:"selectedPriceLevels"`
		MinRating           float64  `json:"minRating"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := validate.Coordinates(req.Lat, req.Lng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Latitude and longitude are required"})
		return
	}
	if req.Radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A positive radius is required"})
		return
	}

	results, err := h.places.Search(c.Request.Context(), places.SearchRequest{
		Lat:         *req.Lat,
		Lng:         *req.Lng,
		RadiusMiles: req.Radius,
		Keywords:    req.Keywords,
		PriceLevels: req.SelectedPriceLevels,
		MinRating:   req.MinRating,
	})
	if err != nil {
		upstreamError(c, "Failed to discover places", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"places": results})
}
