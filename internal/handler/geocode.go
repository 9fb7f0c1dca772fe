package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/upstream/geocoding"
	"github.com/choosing-sucks/gateway/internal/upstream/supabase"
	"github.com/choosing-sucks/gateway/internal/validate"
)

type GeocodeHandler struct {
	supabase  *supabase.Client
	geocoding *geocoding.Client
}

func NewGeocodeHandler(sb *supabase.Client, gc *geocoding.Client) *GeocodeHandler {
	return &GeocodeHandler{supabase: sb, geocoding: gc}
}

// Handles POST /api/geocode. The body is forwarded to the geocode edge
// function as-is and the upstream status and body come back verbatim.
func (h *GeocodeHandler) Geocode(c *gin.Context) {
	if h.supabase == nil {
		notConfigured(c, "supabase")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.supabase.Invoke(c.Request.Context(), "geocode", body, false)
	if err != nil {
		upstreamError(c, "Failed to geocode", err)
		return
	}

	c.Data(result.StatusCode, "application/json", result.Body)
}

// Handles POST /api/reverse-geocode
func (h *GeocodeHandler) ReverseGeocode(c *gin.Context) {
	if h.geocoding == nil {
		notConfigured(c, "google geocoding")
		return
	}

	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Latitude and longitude are required"})
		return
	}
	if err := validate.Coordinates(req.Lat, req.Lng); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Latitude and longitude are required"})
		return
	}

	location, err := h.geocoding.ReverseGeocode(c.Request.Context(), *req.Lat, *req.Lng)
	if errors.Is(err, geocoding.ErrNoPostalCode) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ZIP code not found for this location"})
		return
	}
	if err != nil {
		upstreamError(c, "Failed to reverse geocode", err)
		return
	}

	c.JSON(http.StatusOK, location)
}
