package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choosing-sucks/gateway/internal/upstream/anthropic"
	"github.com/choosing-sucks/gateway/internal/upstream/geocoding"
	"github.com/choosing-sucks/gateway/internal/upstream/places"
	"github.com/choosing-sucks/gateway/internal/upstream/supabase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestReverseGeocode_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OK", "results": [{"formatted_address": "x", "address_components": []}]}`)
	}))
	defer server.Close()

	h := NewGeocodeHandler(nil, geocoding.NewClientWithBaseURL("k", server.URL))
	router := gin.New()
	router.POST("/api/reverse-geocode", h.ReverseGeocode)

	w := postJSON(router, "/api/reverse-geocode", `{"lat": 40.7, "lng": -74.0}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "ZIP code not found for this location"}`, w.Body.String())
}

func TestReverseGeocode_MissingCoordinates(t *testing.T) {
	h := NewGeocodeHandler(nil, geocoding.NewClientWithBaseURL("k", "http://localhost:1"))
	router := gin.New()
	router.POST("/api/reverse-geocode", h.ReverseGeocode)

	for _, body := range []string{`{}`, `{"lat": 40.7}`, `{"lng": -74.0}`, `not json`} {
		w := postJSON(router, "/api/reverse-geocode", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}

func TestReverseGeocode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OK", "results": [{
			"formatted_address": "350 5th Ave, New York, NY 10118, USA",
			"address_components": [{"long_name": "10118", "types": ["postal_code"]}]
		}]}`)
	}))
	defer server.Close()

	h := NewGeocodeHandler(nil, geocoding.NewClientWithBaseURL("k", server.URL))
	router := gin.New()
	router.POST("/api/reverse-geocode", h.ReverseGeocode)

	w := postJSON(router, "/api/reverse-geocode", `{"lat": 40.7484, "lng": -73.9857}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"zipCode": "10118", "address": "350 5th Ave, New York, NY 10118, USA"}`, w.Body.String())
}

func TestChat_RequiresMessages(t *testing.T) {
	h := NewChatHandler(anthropic.NewClientWithBaseURL("k", "http://localhost:1"))
	router := gin.New()
	router.POST("/api/chat", h.Chat)

	for _, body := range []string{`{}`, `{"messages": []}`, `broken`} {
		w := postJSON(router, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.JSONEq(t, `{"error": "Messages are required"}`, w.Body.String())
	}
}

func TestExtractFilters_EmptyInputReturnsDefaults(t *testing.T) {
	h := NewChatHandler(anthropic.NewClientWithBaseURL("k", "http://localhost:1"))
	router := gin.New()
	router.POST("/api/chat-extract-filters", h.ExtractFilters)

	w := postJSON(router, "/api/chat-extract-filters", `{"messages": []}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"keywords": [], "selectedPriceLevels": [1, 2, 3], "minRating": null}`, w.Body.String())
}

func TestExtractFilters_UnparseableModelOutputReturnsDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "Happy to help! Let me think."}]}`)
	}))
	defer server.Close()

	h := NewChatHandler(anthropic.NewClientWithBaseURL("k", server.URL))
	router := gin.New()
	router.POST("/api/chat-extract-filters", h.ExtractFilters)

	w := postJSON(router, "/api/chat-extract-filters", `{"messages": [{"role": "user", "content": "anything"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"keywords": [], "selectedPriceLevels": [1, 2, 3], "minRating": null}`, w.Body.String())
}

func supabaseClient(t *testing.T, upstream http.HandlerFunc) *supabase.Client {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	// Structurally valid JWTs with the expected role claims.
	client, err := supabase.NewClient(server.URL, testAnonKey, testServiceKey)
	require.NoError(t, err)
	return client
}

// Unsigned test tokens: header/claims base64 with an empty signature part.
const (
	testAnonKey    = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJyb2xlIjoiYW5vbiJ9.x"
	testServiceKey = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJyb2xlIjoic2VydmljZV9yb2xlIn0.x"
)

func TestPlacesSearch_RejectsInvalidSessionID(t *testing.T) {
	h := NewPlacesHandler(supabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called for invalid session IDs")
	}), nil)
	router := gin.New()
	router.POST("/api/places-search", h.Search)

	w := postJSON(router, "/api/places-search", `{"sessionId": "not-a-uuid", "lat": 40.7, "lng": -74.0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "Invalid session ID"}`, w.Body.String())
}

func TestPlacesSearch_ForwardsValidSession(t *testing.T) {
	h := NewPlacesHandler(supabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"queued": true}`))
	}), nil)
	router := gin.New()
	router.POST("/api/places-search", h.Search)

	w := postJSON(router, "/api/places-search", `{"sessionId": "123e4567-e89b-12d3-a456-426614174000"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"queued": true}`, w.Body.String())
}

func TestCheckMatch_RequiresAllFields(t *testing.T) {
	h := NewEdgeHandler(supabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called for invalid input")
	}))
	router := gin.New()
	router.POST("/api/check-match", h.CheckMatch)

	w := postJSON(router, "/api/check-match", `{"sessionId": "s", "candidateId": "c"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckMatch_PassesUpstreamThrough(t *testing.T) {
	h := NewEdgeHandler(supabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testServiceKey, r.Header.Get("Authorization"))
		w.Write([]byte(`{"match": true}`))
	}))
	router := gin.New()
	router.POST("/api/check-match", h.CheckMatch)

	w := postJSON(router, "/api/check-match", `{"sessionId": "s", "candidateId": "c", "participantId": "p"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"match": true}`, w.Body.String())
}

func TestDiscoverPlaces_MissingAdapterIsServerError(t *testing.T) {
	h := NewPlacesHandler(nil, nil)
	router := gin.New()
	router.POST("/api/discover-places", h.Discover)

	// Adapter missing entirely is a server-side configuration problem.
	w := postJSON(router, "/api/discover-places", `{"lat": 40.7, "lng": -74.0, "radius": 5}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "GOOGLE", "credential names must not leak")
}

func TestDiscoverPlaces_RejectsNonPositiveRadius(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called for invalid input")
	}))
	defer upstream.Close()

	h := NewPlacesHandler(nil, places.NewClientWithBaseURL("k", upstream.URL))
	router := gin.New()
	router.POST("/api/discover-places", h.Discover)

	for _, body := range []string{
		`{"lat": 40.7, "lng": -74.0}`,
		`{"lat": 40.7, "lng": -74.0, "radius": 0}`,
		`{"lat": 40.7, "lng": -74.0, "radius": -5}`,
	} {
		w := postJSON(router, "/api/discover-places", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.JSONEq(t, `{"error": "A positive radius is required"}`, w.Body.String())
	}
}

func TestByoEnhance_DisabledWithoutOpenAI(t *testing.T) {
	h := NewBYOHandler(nil, nil, nil)
	router := gin.New()
	router.POST("/api/byo-enhance", h.Enhance)

	w := postJSON(router, "/api/byo-enhance", `{"candidateId": "c", "optionName": "Joe's Pizza", "sessionId": "s"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"aiEnhancementDisabled": true}`, w.Body.String())
}

func TestByoEnhance_RequiresFields(t *testing.T) {
	h := NewBYOHandler(nil, nil, nil)
	router := gin.New()
	router.POST("/api/byo-enhance", h.Enhance)

	for _, body := range []string{`{}`, `{"candidateId": "c"}`, `{"candidateId": "c", "optionName": "x"}`} {
		w := postJSON(router, "/api/byo-enhance", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}
