package dto

import "time"

// UploadStat is one day of one application as reported by the CLI. Date is
// formatted as 2006-01-02.
type UploadStat struct {
	Date         string           `json:"date"`
	Application  string           `json:"application"`
	InputTokens  int64            `json:"inputTokens"`
	OutputTokens int64            `json:"outputTokens"`
	CacheTokens  int64            `json:"cacheTokens"`
	Cost         float64          `json:"cost"`
	Messages     int              `json:"messages"`
	Languages    map[string]int64 `json:"languages,omitempty"`
}

type UploadRequest struct {
	Stats []UploadStat `json:"stats"`
}

type UploadResult struct {
	Accepted int `json:"accepted"`
}

type LanguageUsage struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Lines int64  `json:"lines"`
}

type Stats struct {
	InputTokens     int64           `json:"inputTokens"`
	OutputTokens    int64           `json:"outputTokens"`
	CacheTokens     int64           `json:"cacheTokens"`
	TotalTokens     int64           `json:"totalTokens"`
	TotalFormatted  string          `json:"totalFormatted"`
	Cost            float64         `json:"cost"`
	CostFormatted   string          `json:"costFormatted"`
	Messages        int64           `json:"messages"`
	StreakDays      int             `json:"streakDays"`
	LastUpload      *time.Time      `json:"lastUpload"`
	LastUploadHuman string          `json:"lastUploadRelative,omitempty"`
	Languages       []LanguageUsage `json:"languages"`
}

type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	Badge          string  `json:"badge,omitempty"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"displayName"`
	AvatarURL      *string `json:"avatarUrl,omitempty"`
	TotalTokens    int64   `json:"totalTokens"`
	TotalFormatted string  `json:"totalFormatted"`
	Cost           float64 `json:"cost"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}
