package integration

import (
	"context"
	"testing"
	"time"

	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUsageService_Integration_UploadReplacesDay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewUsageService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)

	n, err := svc.Upload(ctx, user.ID, []models.DailyStat{
		{Date: day("2026-05-09"), Application: "claude_code", InputTokens: 100, OutputTokens: 50, Cost: 1.5, Messages: 3, Languages: map[string]int64{"go": 10}},
		{Date: day("2026-05-10"), Application: "claude_code", InputTokens: 200, Cost: 2, Messages: 4, Languages: map[string]int64{"rust": 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Same day again: the CLI resends the full day, so figures are replaced.
	_, err = svc.Upload(ctx, user.ID, []models.DailyStat{
		{Date: day("2026-05-10"), Application: "claude_code", InputTokens: 300, Cost: 3, Messages: 6, Languages: map[string]int64{"rust": 8}},
	})
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), totals.InputTokens)
	assert.Equal(t, int64(50), totals.OutputTokens)
	assert.InDelta(t, 4.5, totals.Cost, 0.0001)
	assert.Equal(t, int64(9), totals.Messages)
	assert.Equal(t, map[string]int64{"go": 10, "rust": 8}, totals.Languages)
	assert.Len(t, totals.ActiveDays, 2)
	assert.NotNil(t, totals.LastUpload)
}

func TestUsageService_Integration_UploadRejectsInvalid(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewUsageService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)

	_, err := svc.Upload(ctx, user.ID, []models.DailyStat{
		{Date: day("2026-05-09"), Application: "claude_code", InputTokens: 10},
		{Date: day("2026-05-10"), Application: "", InputTokens: 10},
	})
	assert.ErrorIs(t, err, services.ErrInvalidUsage)

	totals, err := svc.Totals(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, totals.InputTokens, "nothing stored from a rejected upload")
	assert.Nil(t, totals.LastUpload)
}

func TestUsageService_Integration_Leaderboard(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewUsageService(tdb.DB)
	ctx := context.Background()

	alice := fixtures.CreateUser(t, testutil.WithUsername("alice"))
	bob := fixtures.CreateUser(t, testutil.WithUsername("bob"), testutil.WithDisplayPreference(models.PreferUsername))
	carol := fixtures.CreateUser(t, testutil.WithUsername("carol"))

	fixtures.CreateDailyStat(t, alice.ID, day("2026-05-09"), "claude_code", 500, nil)
	fixtures.CreateDailyStat(t, bob.ID, day("2026-05-09"), "claude_code", 2000, nil)
	fixtures.CreateDailyStat(t, bob.ID, day("2026-05-10"), "codex", 1000, nil)
	fixtures.CreateDailyStat(t, carol.ID, day("2026-05-10"), "claude_code", 800, nil)

	entries, err := svc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, int64(3000), entries[0].TotalTokens)
	assert.Equal(t, models.PreferUsername, entries[0].DisplayPreference)
	assert.Equal(t, "carol", entries[1].Username)

	entries, err = svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
