package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/sashabaranov/go-openai"

	"github.com/choosing-sucks/gateway/internal/models"
)

// ErrDisabled means no OpenAI API key is configured.
var ErrDisabled = errors.New("openai is not configured")

const defaultOpenAIModel = openai.GPT4oMini

// Per-1K-token pricing in USD.
type modelPricing struct {
	Input  float64
	Output float64
}

var openAIPricing = map[string]modelPricing{
	openai.GPT4o:     {Input: 0.0025, Output: 0.01},
	openai.GPT4oMini: {Input: 0.00015, Output: 0.0006},
}

// UsageRecorder persists one usage record per metered call.
type UsageRecorder interface {
	Create(ctx context.Context, record *models.UsageRecord) error
}

// OpenAIService wraps chat completions with usage accounting: every call
// records provider, endpoint, token counts and computed cost before the
// response is returned.
type OpenAIService struct {
	client *openai.Client
	usage  UsageRecorder
	model  string
}

func NewOpenAIService(apiKey string, usage UsageRecorder) *OpenAIService {
	s := &OpenAIService{
		usage: usage,
		model: defaultOpenAIModel,
	}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

// NewOpenAIServiceWithClient is used by tests to point at a fake server.
func NewOpenAIServiceWithClient(client *openai.Client, usage UsageRecorder, model string) *OpenAIService {
	return &OpenAIService{client: client, usage: usage, model: model}
}

func (s *OpenAIService) Enabled() bool {
	return s.client != nil
}

// Completion runs one chat completion, records its usage tagged with endpoint,
// purpose and metadata, and returns the first choice's content.
func (s *OpenAIService) Completion(ctx context.Context, endpoint, purpose string, metadata map[string]string, messages []openai.ChatCompletionMessage, maxTokens int) (string, error) {
	if s.client == nil {
		return "", ErrDisabled
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}

	s.record(ctx, endpoint, purpose, metadata, resp)

	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) record(ctx context.Context, endpoint, purpose string, metadata map[string]string, resp openai.ChatCompletionResponse) {
	var meta string
	if len(metadata) > 0 {
		if encoded, err := json.Marshal(metadata); err == nil {
			meta = string(encoded)
		}
	}

	record := &models.UsageRecord{
		Provider:         "openai",
		Endpoint:         endpoint,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		CostUSD:          EstimateCost(resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		Purpose:          purpose,
		Metadata:         meta,
	}

	// Accounting must not fail the call that produced it.
	if err := s.usage.Create(ctx, record); err != nil {
		log.Printf("Failed to record openai usage: %v", err)
	}
}

// EstimateCost prices a call from its token counts. Unknown models are priced
// at the default model's rates rather than dropped from accounting.
func EstimateCost(model string, promptTokens, completionTokens int) float64 {
	pricing, ok := openAIPricing[model]
	if !ok {
		pricing = openAIPricing[defaultOpenAIModel]
	}

	return float64(promptTokens)/1000.0*pricing.Input +
		float64(completionTokens)/1000.0*pricing.Output
}
