package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/splitrail/splitrail-web/internal/database"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsageService(t *testing.T) (*UsageService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewUsageService(&database.DB{Pool: mock}), mock
}

func day(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func TestUsageService_Upload(t *testing.T) {
	svc, mock := setupUsageService(t)
	userID := uuid.New()
	stats := []models.DailyStat{
		{Date: day("2024-03-01"), Application: " claude_code ", InputTokens: 100, OutputTokens: 50, Cost: 0.25, Messages: 4,
			Languages: map[string]int64{"go": 120}},
		{Date: day("2024-03-02"), Application: "codex", InputTokens: 10},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO daily_stats`).
		WithArgs(userID, day("2024-03-01"), "claude_code", int64(100), int64(50), int64(0), 0.25, 4, `{"go":120}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO daily_stats`).
		WithArgs(userID, day("2024-03-02"), "codex", int64(10), int64(0), int64(0), 0.0, 0, `{}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := svc.Upload(context.Background(), userID, stats)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageService_Upload_Empty(t *testing.T) {
	svc, mock := setupUsageService(t)

	n, err := svc.Upload(context.Background(), uuid.New(), nil)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageService_Upload_Invalid(t *testing.T) {
	svc, mock := setupUsageService(t)

	tests := []struct {
		name string
		stat models.DailyStat
	}{
		{"missing date", models.DailyStat{Application: "codex"}},
		{"missing application", models.DailyStat{Date: day("2024-03-01"), Application: "  "}},
		{"negative tokens", models.DailyStat{Date: day("2024-03-01"), Application: "codex", InputTokens: -1}},
		{"negative cost", models.DailyStat{Date: day("2024-03-01"), Application: "codex", Cost: -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), uuid.New(), []models.DailyStat{tt.stat})
			assert.ErrorIs(t, err, ErrInvalidUsage)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageService_Upload_RollsBackOnError(t *testing.T) {
	svc, mock := setupUsageService(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO daily_stats`).
		WithArgs(userID, day("2024-03-01"), "codex", int64(0), int64(0), int64(0), float64(0), 0, "{}").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Upload(context.Background(), userID, []models.DailyStat{
		{Date: day("2024-03-01"), Application: "codex"},
	})

	assert.ErrorContains(t, err, "2024-03-01")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageService_Totals(t *testing.T) {
	svc, mock := setupUsageService(t)
	userID := uuid.New()
	last := time.Now().Add(-2 * time.Hour)

	mock.ExpectQuery(`SELECT\s+COALESCE\(SUM\(input_tokens\)`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"input", "output", "cache", "cost", "messages", "max"}).
			AddRow(int64(1000), int64(500), int64(20), 1.5, int64(12), &last))
	mock.ExpectQuery(`SELECT DISTINCT date FROM daily_stats`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"date"}).
			AddRow(day("2024-03-02")).
			AddRow(day("2024-03-01")))
	mock.ExpectQuery(`jsonb_each_text`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"key", "sum"}).
			AddRow("go", int64(300)).
			AddRow("rust", int64(40)))

	totals, err := svc.Totals(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, int64(1000), totals.InputTokens)
	assert.Equal(t, int64(500), totals.OutputTokens)
	assert.Equal(t, int64(12), totals.Messages)
	assert.Len(t, totals.ActiveDays, 2)
	assert.Equal(t, map[string]int64{"go": 300, "rust": 40}, totals.Languages)
	require.NotNil(t, totals.LastUpload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageService_Totals_NoData(t *testing.T) {
	svc, mock := setupUsageService(t)
	userID := uuid.New()

	mock.ExpectQuery(`COALESCE`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"input", "output", "cache", "cost", "messages", "max"}).
			AddRow(int64(0), int64(0), int64(0), 0.0, int64(0), nil))
	mock.ExpectQuery(`SELECT DISTINCT date`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"date"}))
	mock.ExpectQuery(`jsonb_each_text`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"key", "sum"}))

	totals, err := svc.Totals(context.Background(), userID)

	require.NoError(t, err)
	assert.Nil(t, totals.LastUpload)
	assert.Empty(t, totals.ActiveDays)
	assert.NotNil(t, totals.Languages)
}

func TestUsageService_Leaderboard(t *testing.T) {
	svc, mock := setupUsageService(t)
	avatar := "https://avatars.example/1"

	mock.ExpectQuery(`SELECT u.id, u.username`).
		WithArgs(MaxLeaderboard).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "name", "avatar_url", "display_preference", "total", "cost"}).
			AddRow(uuid.New(), "octocat", "The Octocat", &avatar, "displayName", int64(9000), 12.5).
			AddRow(uuid.New(), "hubot", "", nil, "username", int64(10), 0.1))

	entries, err := svc.Leaderboard(context.Background(), 1000)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "octocat", entries[0].Username)
	assert.Equal(t, int64(9000), entries[0].TotalTokens)
	assert.Nil(t, entries[1].AvatarURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageService_Leaderboard_DefaultLimit(t *testing.T) {
	svc, mock := setupUsageService(t)

	mock.ExpectQuery(`FROM daily_stats d`).
		WithArgs(DefaultLeaderboard).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "name", "avatar_url", "display_preference", "total", "cost"}))

	entries, err := svc.Leaderboard(context.Background(), 0)

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
