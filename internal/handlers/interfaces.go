package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/oauth"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/internal/sse"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateDisplayPreference(ctx context.Context, id uuid.UUID, preference string) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email, username string) (*services.TokenPair, error)
	GenerateSessionToken(userID uuid.UUID, email, username string, ttl time.Duration) (string, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// APITokenServiceInterface defines the methods used by handlers from APITokenService
type APITokenServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (*models.APIToken, error)
	Delete(ctx context.Context, userID, tokenID uuid.UUID) error
}

// UsageServiceInterface defines the methods used by handlers from UsageService
type UsageServiceInterface interface {
	Upload(ctx context.Context, userID uuid.UUID, stats []models.DailyStat) (int, error)
	Totals(ctx context.Context, userID uuid.UUID) (*models.UsageTotals, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// EventHubInterface defines the methods used by handlers from sse.Hub
type EventHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}

// EventPublisher receives account events for a user's open streams
type EventPublisher interface {
	Publish(userID uuid.UUID, event sse.Event)
}
