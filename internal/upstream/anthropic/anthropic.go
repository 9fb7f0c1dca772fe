package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-5-haiku-20241022"

	conciergeMaxTokens = 256
	extractMaxTokens   = 200
)

const conciergeSystemPrompt = `You are the concierge for choosing.sucks, an app that helps groups decide where to eat. Chat with the user about what kind of food they are in the mood for. Be warm and brief: two or three sentences, no lists. Ask at most one follow-up question. Never mention specific restaurant names; the app surfaces those as swipe cards.`

const extractSystemPrompt = `Extract dining filters from the conversation. Respond with only a JSON object, no prose and no code fences, in this exact shape: {"keywords": ["cuisine or dish words"], "selectedPriceLevels": [1,2,3], "minRating": null}. selectedPriceLevels uses 1 (cheap) through 4 (expensive). minRating is a number between 1 and 5, or null if the user never mentioned quality.`

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Filters is the structured output of filter extraction.
type Filters struct {
	Keywords            []string `json:"keywords"`
	SelectedPriceLevels []int    `json:"selectedPriceLevels"`
	MinRating           *float64 `json:"minRating"`
}

// DefaultFilters is what extraction falls back to when the model output
// cannot be parsed.
func DefaultFilters() Filters {
	return Filters{
		Keywords:            []string{},
		SelectedPriceLevels: []int{1, 2, 3},
		MinRating:           nil,
	}
}

// Client calls the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Converse runs one turn of concierge dialogue and returns the reply text.
func (c *Client) Converse(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, conciergeSystemPrompt, messages, conciergeMaxTokens)
}

// ExtractFilters asks the model for structured filters. On any parse failure
// it returns DefaultFilters together with the parse error, so callers can log
// the failure but still serve the defaults.
func (c *Client) ExtractFilters(ctx context.Context, messages []Message) (Filters, error) {
	text, err := c.complete(ctx, extractSystemPrompt, messages, extractMaxTokens)
	if err != nil {
		return DefaultFilters(), err
	}

	filters, err := ParseFilters(text)
	if err != nil {
		return DefaultFilters(), err
	}
	return filters, nil
}

// ParseFilters parses model output into Filters, tolerating code fences.
func ParseFilters(text string) (Filters, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var filters Filters
	if err := json.Unmarshal([]byte(text), &filters); err != nil {
		return Filters{}, fmt.Errorf("model output is not valid filter JSON: %w", err)
	}

	if filters.Keywords == nil {
		filters.Keywords = []string{}
	}
	if len(filters.SelectedPriceLevels) == 0 {
		filters.SelectedPriceLevels = []int{1, 2, 3}
	}

	return filters, nil
}

func (c *Client) complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	payload, err := json.Marshal(messagesRequest{
		Model:     c.model,
		System:    system,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode messages request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse anthropic response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return text.String(), nil
}
