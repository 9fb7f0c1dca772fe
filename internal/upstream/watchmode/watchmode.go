package watchmode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.watchmode.com/v1"

// Client calls the Watchmode catalog API for the "what to watch" flow.
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

// Title is one watchable candidate.
type Title struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Year   int     `json:"year"`
	Type   string  `json:"type"`
	ImdbID string  `json:"imdbId,omitempty"`
	TmdbID int     `json:"tmdbId,omitempty"`
}

type listTitlesResponse struct {
	Titles []struct {
		ID     int    `json:"id"`
		Title  string `json:"title"`
		Year   int    `json:"year"`
		Type   string `json:"type"`
		ImdbID string `json:"imdb_id"`
		TmdbID int    `json:"tmdb_id"`
	} `json:"titles"`
}

// ListTitles searches the catalog by genre and streaming source, sorted by
// popularity, movies and series only.
func (c *Client) ListTitles(ctx context.Context, genres, sourceIDs []int) ([]Title, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("types", "movie,tv_series")
	params.Set("sort_by", "popularity_desc")
	if len(genres) > 0 {
		params.Set("genres", joinInts(genres))
	}
	if len(sourceIDs) > 0 {
		params.Set("source_ids", joinInts(sourceIDs))
	}

	endpoint := c.baseURL + "/list-titles/?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("watchmode request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watchmode API returned status %d", httpResp.StatusCode)
	}

	var resp listTitlesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse watchmode response: %w", err)
	}

	titles := make([]Title, 0, len(resp.Titles))
	for _, t := range resp.Titles {
		titles = append(titles, Title{
			ID:     t.ID,
			Title:  t.Title,
			Year:   t.Year,
			Type:   t.Type,
			ImdbID: t.ImdbID,
			TmdbID: t.TmdbID,
		})
	}

	return titles, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
