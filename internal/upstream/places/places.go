package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/choosing-sucks/gateway/internal/geo"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"

	// Only the fields the swipe cards need.
	searchFieldMask = "places.id,places.displayName,places.rating,places.priceLevel,places.photos,places.location,places.websiteUri"

	maxResults = 10
)

// Client calls the Google Places text-search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SearchRequest is a restaurant discovery query around a point.
type SearchRequest struct {
	Lat         float64
	Lng         float64
	RadiusMiles float64
	Keywords    []string
	PriceLevels []int
	MinRating   float64
}

// Place is the shaped result returned to clients. PriceLevel is 0-4 where
// 0 means free.
type Place struct {
	PlaceID    string  `json:"placeId"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	PriceLevel int     `json:"priceLevel"`
	PhotoRef   string  `json:"photoRef,omitempty"`
	Website    string  `json:"website,omitempty"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

type textSearchRequest struct {
	TextQuery      string        `json:"textQuery"`
	LocationBias   *locationBias `json:"locationBias,omitempty"`
	PriceLevels    []string      `json:"priceLevels,omitempty"`
	MaxResultCount int           `json:"maxResultCount,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type textSearchResponse struct {
	Places []upstreamPlace `json:"places"`
}

type upstreamPlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	Rating     *float64 `json:"rating"`
	PriceLevel string   `json:"priceLevel"`
	Location   latLng   `json:"location"`
	Photos     []struct {
		Name string `json:"name"`
	} `json:"photos"`
	WebsiteURI string `json:"websiteUri"`
}

var priceLevelNames = map[int]string{
	1: "PRICE_LEVEL_INEXPENSIVE",
	2: "PRICE_LEVEL_MODERATE",
	3: "PRICE_LEVEL_EXPENSIVE",
	4: "PRICE_LEVEL_VERY_EXPENSIVE",
}

var priceLevelValues = map[string]int{
	"PRICE_LEVEL_FREE":           0,
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

// Search runs text search around the request point and shapes the results:
// true-distance filter, optional rating floor, descending rating order,
// truncated to 10. The upstream circular bias is approximate, so the
// haversine cut is applied again locally.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Place, error) {
	query := "restaurants"
	if len(req.Keywords) > 0 {
		query += " " + strings.Join(req.Keywords, " ")
	}

	radiusMeters := geo.MilesToMeters(req.RadiusMiles)

	body := textSearchRequest{
		TextQuery: query,
		LocationBias: &locationBias{
			Circle: circle{
				Center: latLng{Latitude: req.Lat, Longitude: req.Lng},
				Radius: radiusMeters,
			},
		},
		MaxResultCount: 20,
	}

	for _, level := range req.PriceLevels {
		if name, ok := priceLevelNames[level]; ok {
			body.PriceLevels = append(body.PriceLevels, name)
		}
	}

	resp, err := c.textSearch(ctx, body)
	if err != nil {
		return nil, err
	}

	return shapeResults(resp.Places, req.Lat, req.Lng, radiusMeters, req.MinRating), nil
}

// FindPlace looks up a single place by free-text name, used to enrich
// bring-your-own options with a photo and website.
func (c *Client) FindPlace(ctx context.Context, name string) (*Place, error) {
	resp, err := c.textSearch(ctx, textSearchRequest{
		TextQuery:      name,
		MaxResultCount: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Places) == 0 {
		return nil, nil
	}

	p := toPlace(resp.Places[0])
	return &p, nil
}

func (c *Client) textSearch(ctx context.Context, body textSearchRequest) (*textSearchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchFieldMask)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp textSearchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse places response: %w", err)
	}

	return &resp, nil
}

func shapeResults(raw []upstreamPlace, lat, lng, radiusMeters, minRating float64) []Place {
	places := make([]Place, 0, len(raw))

	for _, up := range raw {
		distance := geo.Haversine(lat, lng, up.Location.Latitude, up.Location.Longitude)
		if distance > radiusMeters {
			continue
		}
		if minRating > 0 && (up.Rating == nil || *up.Rating < minRating) {
			continue
		}
		places = append(places, toPlace(up))
	}

	sort.SliceStable(places, func(i, j int) bool {
		return places[i].Rating > places[j].Rating
	})

	if len(places) > maxResults {
		places = places[:maxResults]
	}

	return places
}

func toPlace(up upstreamPlace) Place {
	p := Place{
		PlaceID:    up.ID,
		Name:       up.DisplayName.Text,
		PriceLevel: priceLevelValues[up.PriceLevel],
		Website:    up.WebsiteURI,
		Lat:        up.Location.Latitude,
		Lng:        up.Location.Longitude,
	}
	if up.Rating != nil {
		p.Rating = *up.Rating
	}
	if len(up.Photos) > 0 {
		p.PhotoRef = up.Photos[0].Name
	}
	return p
}
