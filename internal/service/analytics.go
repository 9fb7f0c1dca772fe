package service

import (
	"context"
	"time"

	"github.com/choosing-sucks/gateway/internal/models"
	"github.com/choosing-sucks/gateway/internal/repository"
)

type AnalyticsService struct {
	repository *repository.RequestLogRepository
}

func NewAnalyticsService(repo *repository.RequestLogRepository) *AnalyticsService {
	return &AnalyticsService{repository: repo}
}

// Holds gateway traffic summary data
type AnalyticsSummary struct {
	TotalRequests   int64                      `json:"total_requests"`
	AvgResponseTime float64                    `json:"avg_response_time_ms"`
	ErrorRate       float64                    `json:"error_rate"`
	SuccessRate     float64                    `json:"success_rate"`
	ClientErrorRate float64                    `json:"client_error_rate"`
	ServerErrorRate float64                    `json:"server_error_rate"`
	RateLimitedRate float64                    `json:"rate_limited_rate"`
	TopEndpoints    []repository.EndpointCount `json:"top_endpoints"`
}

// Retrieves the traffic summary for a time range
func (s *AnalyticsService) GetSummary(ctx context.Context, from, to time.Time) (*AnalyticsSummary, error) {
	total, err := s.repository.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if total == 0 {
		return &AnalyticsSummary{}, nil
	}

	avg, err := s.repository.GetAverageResponseTime(ctx, from, to)
	if err != nil {
		return nil, err
	}

	clientErrors, err := s.repository.CountByStatusCodeRange(ctx, 400, 499, from, to)
	if err != nil {
		return nil, err
	}

	serverErrors, err := s.repository.CountByStatusCodeRange(ctx, 500, 599, from, to)
	if err != nil {
		return nil, err
	}

	rateLimited, err := s.repository.CountByStatusCodeRange(ctx, 429, 429, from, to)
	if err != nil {
		return nil, err
	}

	topEndpoints, err := s.repository.GetTopEndpoints(ctx, from, to, 10)
	if err != nil {
		return nil, err
	}

	return summarizeTraffic(total, clientErrors, serverErrors, rateLimited, avg, topEndpoints), nil
}

func summarizeTraffic(total, clientErrors, serverErrors, rateLimited int64, avg float64, top []repository.EndpointCount) *AnalyticsSummary {
	summary := &AnalyticsSummary{
		TotalRequests:   total,
		AvgResponseTime: avg,
		TopEndpoints:    top,
	}

	totalErrors := clientErrors + serverErrors
	summary.ErrorRate = float64(totalErrors) / float64(total) * 100
	summary.SuccessRate = 100 - summary.ErrorRate
	summary.ClientErrorRate = float64(clientErrors) / float64(total) * 100
	summary.ServerErrorRate = float64(serverErrors) / float64(total) * 100
	summary.RateLimitedRate = float64(rateLimited) / float64(total) * 100

	return summary
}

// Retrieves request logs with pagination and optional status filtering
func (s *AnalyticsService) GetLogs(ctx context.Context, from, to time.Time, statusCode *int, limit, offset int) ([]models.RequestLog, error) {
	if statusCode != nil {
		return s.repository.FindByStatusCode(ctx, *statusCode, from, to, limit, offset)
	}
	return s.repository.FindByTimeRange(ctx, from, to, limit, offset)
}

// Deletes logs older than the retention period
func (s *AnalyticsService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	cutOffDate := time.Now().AddDate(0, 0, -retentionDays)
	return s.repository.DeleteOldLogs(ctx, cutOffDate)
}
