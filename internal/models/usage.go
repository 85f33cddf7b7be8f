package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyStat is one user's usage of one application on one calendar day.
type DailyStat struct {
	UserID       uuid.UUID        `json:"user_id"`
	Date         time.Time        `json:"date"`
	Application  string           `json:"application"`
	InputTokens  int64            `json:"input_tokens"`
	OutputTokens int64            `json:"output_tokens"`
	CacheTokens  int64            `json:"cache_tokens"`
	Cost         float64          `json:"cost"`
	Messages     int              `json:"messages"`
	Languages    map[string]int64 `json:"languages"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// UsageTotals aggregates every daily stat of a user.
type UsageTotals struct {
	InputTokens  int64
	OutputTokens int64
	CacheTokens  int64
	Cost         float64
	Messages     int64
	Languages    map[string]int64
	ActiveDays   []time.Time
	LastUpload   *time.Time
}

type LeaderboardEntry struct {
	UserID            uuid.UUID
	Username          string
	Name              string
	AvatarURL         *string
	DisplayPreference string
	TotalTokens       int64
	Cost              float64
}
