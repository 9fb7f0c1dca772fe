package service

import (
	"context"
	"fmt"
	"time"

	"github.com/choosing-sucks/gateway/internal/repository"
)

// StatsService aggregates persisted usage records on demand. There is no
// caching layer; every request recomputes from the database.
type StatsService struct {
	usage *repository.UsageRepository
}

func NewStatsService(usage *repository.UsageRepository) *StatsService {
	return &StatsService{usage: usage}
}

// CostSummary covers all metered providers.
type CostSummary struct {
	Days               int                    `json:"days"`
	TotalCost          string                 `json:"total_cost"`
	TotalCalls         int64                  `json:"total_calls"`
	AverageCostPerCall string                 `json:"average_cost_per_call"`
	MonthToDateCost    string                 `json:"month_to_date_cost"`
	AllTimeCost        string                 `json:"all_time_cost"`
	ByProvider         []repository.Breakdown `json:"by_provider"`
	ByEndpoint         []repository.Breakdown `json:"by_endpoint"`
}

// OpenAISummary covers OpenAI usage only.
type OpenAISummary struct {
	Days                 int                    `json:"days"`
	TotalCalls           int64                  `json:"total_calls"`
	TotalTokens          int64                  `json:"total_tokens"`
	TotalCost            string                 `json:"total_cost"`
	AverageCostPerCall   string                 `json:"average_cost_per_call"`
	AverageTokensPerCall int64                  `json:"average_tokens_per_call"`
	ByPurpose            []repository.Breakdown `json:"by_purpose"`
}

func (s *StatsService) CostStats(ctx context.Context, days int) (*CostSummary, error) {
	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -days)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	window, err := s.usage.TotalsSince(ctx, "", windowStart)
	if err != nil {
		return nil, err
	}

	monthToDate, err := s.usage.TotalsSince(ctx, "", monthStart)
	if err != nil {
		return nil, err
	}

	allTime, err := s.usage.TotalsSince(ctx, "", time.Time{})
	if err != nil {
		return nil, err
	}

	byProvider, err := s.usage.BreakdownSince(ctx, "", "provider", windowStart)
	if err != nil {
		return nil, err
	}

	byEndpoint, err := s.usage.BreakdownSince(ctx, "", "endpoint", windowStart)
	if err != nil {
		return nil, err
	}

	return summarizeCosts(days, window, monthToDate, allTime, byProvider, byEndpoint), nil
}

func (s *StatsService) OpenAIStats(ctx context.Context, days int) (*OpenAISummary, error) {
	windowStart := time.Now().UTC().AddDate(0, 0, -days)

	totals, err := s.usage.TotalsSince(ctx, "openai", windowStart)
	if err != nil {
		return nil, err
	}

	byPurpose, err := s.usage.BreakdownSince(ctx, "openai", "purpose", windowStart)
	if err != nil {
		return nil, err
	}

	return summarizeOpenAI(days, totals, byPurpose), nil
}

func summarizeCosts(days int, window, monthToDate, allTime *repository.Totals, byProvider, byEndpoint []repository.Breakdown) *CostSummary {
	return &CostSummary{
		Days:               days,
		TotalCost:          formatUSD(window.CostUSD, 6),
		TotalCalls:         window.Calls,
		AverageCostPerCall: averagePerCall(window.CostUSD, window.Calls, 6),
		MonthToDateCost:    formatUSD(monthToDate.CostUSD, 6),
		AllTimeCost:        formatUSD(allTime.CostUSD, 6),
		ByProvider:         byProvider,
		ByEndpoint:         byEndpoint,
	}
}

func summarizeOpenAI(days int, totals *repository.Totals, byPurpose []repository.Breakdown) *OpenAISummary {
	summary := &OpenAISummary{
		Days:               days,
		TotalCalls:         totals.Calls,
		TotalTokens:        totals.TotalTokens,
		TotalCost:          formatUSD(totals.CostUSD, 6),
		AverageCostPerCall: averagePerCall(totals.CostUSD, totals.Calls, 4),
		ByPurpose:          byPurpose,
	}
	if totals.Calls > 0 {
		summary.AverageTokensPerCall = totals.TotalTokens / totals.Calls
	}
	return summary
}

func formatUSD(amount float64, decimals int) string {
	return fmt.Sprintf("$%.*f", decimals, amount)
}

// averagePerCall guards the zero-calls case: it yields a formatted zero
// instead of NaN.
func averagePerCall(totalCost float64, calls int64, decimals int) string {
	if calls == 0 {
		return formatUSD(0, decimals)
	}
	return formatUSD(totalCost/float64(calls), decimals)
}
