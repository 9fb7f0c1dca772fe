package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sashabaranov/go-openai"

	"github.com/choosing-sucks/gateway/internal/service"
	"github.com/choosing-sucks/gateway/internal/storage"
	"github.com/choosing-sucks/gateway/internal/upstream/places"
)

const byoCacheTTL = 24 * time.Hour

// BYOHandler enhances "bring your own" options: a short AI-written
// description plus, best effort, a photo and website from Places.
type BYOHandler struct {
	openai *service.OpenAIService
	places *places.Client
	cache  *storage.RedisClient
}

func NewBYOHandler(ai *service.OpenAIService, pl *places.Client, cache *storage.RedisClient) *BYOHandler {
	return &BYOHandler{openai: ai, places: pl, cache: cache}
}

type byoResponse struct {
	Description string   `json:"description"`
	Photos      []string `json:"photos,omitempty"`
	Website     string   `json:"website,omitempty"`
	Cached      bool     `json:"cached,omitempty"`
}

// Handles POST /api/byo-enhance
func (h *BYOHandler) Enhance(c *gin.Context) {
	var req struct {
		CandidateID string `json:"candidateId" binding:"required"`
		OptionName  string `json:"optionName" binding:"required"`
		SessionID   string `json:"sessionId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidateId, optionName and sessionId are required"})
		return
	}

	if h.openai == nil || !h.openai.Enabled() {
		c.JSON(http.StatusOK, gin.H{"aiEnhancementDisabled": true})
		return
	}

	ctx := c.Request.Context()
	cacheKey := "byo:" + req.SessionID + ":" + req.CandidateID

	if h.cache != nil {
		if data, err := h.cache.Get(ctx, cacheKey); err == nil {
			var resp byoResponse
			if json.Unmarshal([]byte(data), &resp) == nil {
				resp.Cached = true
				c.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	prompt := fmt.Sprintf("Write a two-sentence, appetizing description of %q for a group dining app. Plain prose, no emoji, no hashtags.", req.OptionName)
	description, err := h.openai.Completion(ctx, "/api/byo-enhance", "byo-enhance",
		map[string]string{"candidateId": req.CandidateID, "sessionId": req.SessionID},
		[]openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		150)
	if err != nil {
		upstreamError(c, "Failed to enhance option", err)
		return
	}

	resp := byoResponse{Description: strings.TrimSpace(description)}

	// Photo and website lookup is best effort; the description alone is fine.
	if h.places != nil {
		if place, err := h.places.FindPlace(ctx, req.OptionName); err == nil && place != nil {
			if place.PhotoRef != "" {
				resp.Photos = []string{place.PhotoRef}
			}
			resp.Website = place.Website
		} else if err != nil {
			log.Printf("[%s] BYO place lookup failed: %v", c.GetString("request_id"), err)
		}
	}

	if h.cache != nil {
		if encoded, err := json.Marshal(resp); err == nil {
			h.cache.Set(ctx, cacheKey, encoded, byoCacheTTL)
		}
	}

	c.JSON(http.StatusOK, resp)
}
