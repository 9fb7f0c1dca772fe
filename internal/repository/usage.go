package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/choosing-sucks/gateway/internal/models"
	"github.com/choosing-sucks/gateway/internal/storage"
)

type UsageRepository struct {
	db *storage.Postgres
}

func NewUsageRepository(db *storage.Postgres) *UsageRepository {
	return &UsageRepository{db: db}
}

// Inserts a usage record. Records are never updated or deleted.
func (r *UsageRepository) Create(ctx context.Context, record *models.UsageRecord) error {
	return r.db.DB.WithContext(ctx).Create(record).Error
}

// Totals is an aggregate over usage records.
type Totals struct {
	Calls       int64   `json:"calls"`
	TotalTokens int64   `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`
}

// Sums calls, tokens and cost since the given time. provider filters to one
// provider; empty means all.
func (r *UsageRepository) TotalsSince(ctx context.Context, provider string, since time.Time) (*Totals, error) {
	query := r.db.DB.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("created_at >= ?", since)

	if provider != "" {
		query = query.Where("provider = ?", provider)
	}

	var totals Totals
	err := query.
		Select("COUNT(*) as calls, COALESCE(SUM(total_tokens), 0) as total_tokens, COALESCE(SUM(cost_usd), 0) as cost_usd").
		Scan(&totals).Error

	return &totals, err
}

// Breakdown groups aggregate cost by one dimension value.
type Breakdown struct {
	Label   string  `json:"label"`
	Calls   int64   `json:"calls"`
	CostUSD float64 `json:"cost_usd"`
}

var breakdownColumns = map[string]bool{
	"provider": true,
	"endpoint": true,
	"purpose":  true,
	"model":    true,
}

// Groups cost since the given time by column (provider, endpoint, purpose or
// model), most expensive first.
func (r *UsageRepository) BreakdownSince(ctx context.Context, provider, column string, since time.Time) ([]Breakdown, error) {
	if !breakdownColumns[column] {
		return nil, fmt.Errorf("unsupported breakdown column %q", column)
	}

	query := r.db.DB.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("created_at >= ?", since)

	if provider != "" {
		query = query.Where("provider = ?", provider)
	}

	rows, err := query.
		Select(column + " as label, COUNT(*) as calls, COALESCE(SUM(cost_usd), 0) as cost_usd").
		Group(column).
		Order("cost_usd DESC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Breakdown
	for rows.Next() {
		var b Breakdown
		if err := rows.Scan(&b.Label, &b.Calls, &b.CostUSD); err != nil {
			return nil, err
		}
		results = append(results, b)
	}

	return results, nil
}
