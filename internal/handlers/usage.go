package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/metrics"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/internal/sse"
	"github.com/splitrail/splitrail-web/pkg/dto"
	"github.com/splitrail/splitrail-web/pkg/format"
)

type UsageHandler struct {
	usageService UsageServiceInterface
	events       EventPublisher
	now          func() time.Time
}

func NewUsageHandler(usageService UsageServiceInterface) *UsageHandler {
	return &UsageHandler{usageService: usageService, now: time.Now}
}

// WithEvents makes Upload notify the user's open dashboards.
func (h *UsageHandler) WithEvents(events EventPublisher) *UsageHandler {
	h.events = events
	return h
}

// Upload accepts daily stats from the CLI. The route is authenticated by an
// API token, not a session.
func (h *UsageHandler) Upload(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.UploadRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	stats := make([]models.DailyStat, 0, len(req.Stats))
	for _, s := range req.Stats {
		date, err := time.Parse(time.DateOnly, s.Date)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid date: "+s.Date)
			return
		}
		stats = append(stats, models.DailyStat{
			UserID:       userID,
			Date:         date,
			Application:  s.Application,
			InputTokens:  s.InputTokens,
			OutputTokens: s.OutputTokens,
			CacheTokens:  s.CacheTokens,
			Cost:         s.Cost,
			Messages:     s.Messages,
			Languages:    s.Languages,
		})
	}

	accepted, err := h.usageService.Upload(c.Request.Context(), userID, stats)
	if err != nil {
		if errors.Is(err, services.ErrInvalidUsage) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to store upload", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to store usage")
		return
	}

	metrics.UploadedStats.Add(float64(accepted))
	publish(h.events, userID, sse.UsageUploaded(accepted))
	slog.Info("usage uploaded", "user_id", userID, "token_id", middleware.GetAPITokenID(c), "accepted", accepted)
	respond(c, http.StatusOK, dto.UploadResult{Accepted: accepted})
}

// Stats returns the dashboard figures of the session user. The optional
// locale query parameter controls number and time formatting.
func (h *UsageHandler) Stats(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	totals, err := h.usageService.Totals(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to load usage totals", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respond(c, http.StatusOK, BuildStats(totals, c.QueryParam("locale"), h.now()))
}

// BuildStats turns raw totals into the dashboard view model.
func BuildStats(totals *models.UsageTotals, locale string, now time.Time) dto.Stats {
	total := totals.InputTokens + totals.OutputTokens + totals.CacheTokens
	stats := dto.Stats{
		InputTokens:    totals.InputTokens,
		OutputTokens:   totals.OutputTokens,
		CacheTokens:    totals.CacheTokens,
		TotalTokens:    total,
		TotalFormatted: format.FormatLargeNumber(total),
		Cost:           totals.Cost,
		CostFormatted:  format.FormatCurrency(totals.Cost, "USD", locale),
		Messages:       totals.Messages,
		StreakDays:     format.CalculateStreakDays(totals.ActiveDays, now),
		LastUpload:     totals.LastUpload,
		Languages:      make([]dto.LanguageUsage, 0, len(totals.Languages)),
	}
	if totals.LastUpload != nil {
		stats.LastUploadHuman = format.RelativeTime(*totals.LastUpload, now, locale)
	}

	for name, lines := range totals.Languages {
		stats.Languages = append(stats.Languages, dto.LanguageUsage{
			Name:  name,
			Icon:  format.LanguageIcon(name),
			Lines: lines,
		})
	}
	sort.Slice(stats.Languages, func(i, j int) bool {
		if stats.Languages[i].Lines != stats.Languages[j].Lines {
			return stats.Languages[i].Lines > stats.Languages[j].Lines
		}
		return stats.Languages[i].Name < stats.Languages[j].Name
	})
	return stats
}

func (h *UsageHandler) Leaderboard(c *drift.Context) {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.usageService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		slog.Error("failed to load leaderboard", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}

	respond(c, http.StatusOK, BuildLeaderboard(entries))
}

// BuildLeaderboard assigns ranks and badges in the order given.
func BuildLeaderboard(entries []models.LeaderboardEntry) dto.Leaderboard {
	board := dto.Leaderboard{Entries: make([]dto.LeaderboardEntry, 0, len(entries))}
	for i, e := range entries {
		rank := i + 1
		board.Entries = append(board.Entries, dto.LeaderboardEntry{
			Rank:           rank,
			Badge:          string(format.CalculateBadge(rank)),
			Username:       e.Username,
			DisplayName:    format.DisplayName(e.Username, e.Name, format.DisplayPreference(e.DisplayPreference)),
			AvatarURL:      e.AvatarURL,
			TotalTokens:    e.TotalTokens,
			TotalFormatted: format.FormatLargeNumber(e.TotalTokens),
			Cost:           e.Cost,
		})
	}
	return board
}
