package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/splitrail/splitrail-web/internal/database"
	"github.com/splitrail/splitrail-web/internal/models"
)

var ErrInvalidUsage = errors.New("invalid usage stat")

const (
	maxApplicationLength = 50
	maxUploadStats       = 366
	DefaultLeaderboard   = 25
	MaxLeaderboard       = 100
)

type UsageService struct {
	db *database.DB
}

func NewUsageService(db *database.DB) *UsageService {
	return &UsageService{db: db}
}

// Upload stores the per-day totals reported by the CLI. A later upload for
// the same day and application replaces the earlier figures, since the CLI
// always sends the full day.
func (s *UsageService) Upload(ctx context.Context, userID uuid.UUID, stats []models.DailyStat) (int, error) {
	if len(stats) == 0 {
		return 0, nil
	}
	if len(stats) > maxUploadStats {
		return 0, fmt.Errorf("%w: at most %d entries per upload", ErrInvalidUsage, maxUploadStats)
	}
	for i := range stats {
		if err := validateStat(&stats[i]); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, st := range stats {
		languages, err := json.Marshal(st.Languages)
		if err != nil {
			return 0, fmt.Errorf("failed to encode languages: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO daily_stats (user_id, date, application, input_tokens, output_tokens, cache_tokens, cost, messages, languages)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (user_id, date, application) DO UPDATE SET
				input_tokens = EXCLUDED.input_tokens,
				output_tokens = EXCLUDED.output_tokens,
				cache_tokens = EXCLUDED.cache_tokens,
				cost = EXCLUDED.cost,
				messages = EXCLUDED.messages,
				languages = EXCLUDED.languages,
				updated_at = NOW()
		`, userID, st.Date, st.Application, st.InputTokens, st.OutputTokens, st.CacheTokens, st.Cost, st.Messages, string(languages))
		if err != nil {
			return 0, fmt.Errorf("failed to store stat for %s: %w", st.Date.Format(time.DateOnly), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(stats), nil
}

func validateStat(st *models.DailyStat) error {
	st.Application = strings.TrimSpace(st.Application)
	switch {
	case st.Date.IsZero():
		return fmt.Errorf("%w: missing date", ErrInvalidUsage)
	case st.Application == "":
		return fmt.Errorf("%w: missing application", ErrInvalidUsage)
	case len(st.Application) > maxApplicationLength:
		return fmt.Errorf("%w: application name too long", ErrInvalidUsage)
	case st.InputTokens < 0 || st.OutputTokens < 0 || st.CacheTokens < 0 || st.Messages < 0 || st.Cost < 0:
		return fmt.Errorf("%w: negative counter", ErrInvalidUsage)
	}
	if st.Languages == nil {
		st.Languages = map[string]int64{}
	}
	return nil
}

// Totals aggregates all of a user's stats for the dashboard.
func (s *UsageService) Totals(ctx context.Context, userID uuid.UUID) (*models.UsageTotals, error) {
	totals := &models.UsageTotals{Languages: map[string]int64{}}

	err := s.db.Pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(input_tokens), 0)::BIGINT,
			COALESCE(SUM(output_tokens), 0)::BIGINT,
			COALESCE(SUM(cache_tokens), 0)::BIGINT,
			COALESCE(SUM(cost), 0)::DOUBLE PRECISION,
			COALESCE(SUM(messages), 0)::BIGINT,
			MAX(updated_at)
		FROM daily_stats WHERE user_id = $1
	`, userID).Scan(
		&totals.InputTokens, &totals.OutputTokens, &totals.CacheTokens,
		&totals.Cost, &totals.Messages, &totals.LastUpload,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum usage: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT DISTINCT date FROM daily_stats WHERE user_id = $1 ORDER BY date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active days: %w", err)
	}
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			rows.Close()
			return nil, err
		}
		totals.ActiveDays = append(totals.ActiveDays, day)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Pool.Query(ctx, `
		SELECT lang.key, SUM(lang.value::BIGINT)::BIGINT
		FROM daily_stats, jsonb_each_text(daily_stats.languages) AS lang
		WHERE daily_stats.user_id = $1
		GROUP BY lang.key
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum languages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var lines int64
		if err := rows.Scan(&name, &lines); err != nil {
			return nil, err
		}
		totals.Languages[name] = lines
	}
	return totals, rows.Err()
}

// Leaderboard ranks users by total tokens. limit is clamped to
// [1, MaxLeaderboard].
func (s *UsageService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboard
	}
	if limit > MaxLeaderboard {
		limit = MaxLeaderboard
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT u.id, u.username, u.name, u.avatar_url, u.display_preference,
			SUM(d.input_tokens + d.output_tokens + d.cache_tokens)::BIGINT AS total,
			SUM(d.cost)::DOUBLE PRECISION
		FROM daily_stats d
		JOIN users u ON u.id = d.user_id
		GROUP BY u.id
		ORDER BY total DESC, u.username ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Name, &e.AvatarURL, &e.DisplayPreference, &e.TotalTokens, &e.Cost); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
