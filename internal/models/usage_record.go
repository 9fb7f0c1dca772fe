package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageRecord is one metered external API call. Records are append-only:
// nothing in the gateway updates or deletes them.
type UsageRecord struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Provider         string    `gorm:"index;not null" json:"provider"`
	Endpoint         string    `gorm:"index" json:"endpoint"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	Purpose          string    `gorm:"index" json:"purpose"`
	Metadata         string    `json:"metadata,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
