package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/splitrail/splitrail-web/internal/database"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/oauth"
	"github.com/splitrail/splitrail-web/pkg/apitoken"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		GitHubID:          fmt.Sprintf("%d", 1000+f.counter),
		Username:          fmt.Sprintf("user%d", f.counter),
		Email:             fmt.Sprintf("user%d@example.com", f.counter),
		Name:              fmt.Sprintf("Test User %d", f.counter),
		DisplayPreference: models.PreferDisplayName,
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (github_id, username, name, email, avatar_url, display_preference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, user.GitHubID, user.Username, user.Name, user.Email, user.AvatarURL, user.DisplayPreference).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

func WithUsername(username string) UserOption {
	return func(u *models.User) {
		u.Username = username
	}
}

func WithGitHubID(id string) UserOption {
	return func(u *models.User) {
		u.GitHubID = id
	}
}

func WithAvatar(url string) UserOption {
	return func(u *models.User) {
		u.AvatarURL = &url
	}
}

func WithDisplayPreference(pref string) UserOption {
	return func(u *models.User) {
		u.DisplayPreference = pref
	}
}

// CreateAPIToken inserts a token for the user with a freshly generated secret
func (f *Fixtures) CreateAPIToken(t *testing.T, userID uuid.UUID, name string) *models.APIToken {
	t.Helper()

	secret, err := apitoken.Generate()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	token := &models.APIToken{}
	err = f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO api_tokens (user_id, token, name)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token, name, last_used_at, created_at
	`, userID, secret, name).Scan(
		&token.ID, &token.UserID, &token.Token, &token.Name, &token.LastUsedAt, &token.CreatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create api token: %v", err)
	}
	return token
}

// CreateDailyStat inserts one day of usage for the user
func (f *Fixtures) CreateDailyStat(t *testing.T, userID uuid.UUID, date time.Time, application string, tokens int64, languages map[string]int64) {
	t.Helper()

	if languages == nil {
		languages = map[string]int64{}
	}
	langs, err := json.Marshal(languages)
	if err != nil {
		t.Fatalf("failed to encode languages: %v", err)
	}

	_, err = f.db.Pool.Exec(context.Background(), `
		INSERT INTO daily_stats (user_id, date, application, input_tokens, cost, messages, languages)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, userID, date, application, tokens, float64(tokens)/1_000_000, 1, string(langs))
	if err != nil {
		t.Fatalf("failed to create daily stat: %v", err)
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(id, username, name, email string) *oauth.UserInfo {
	return &oauth.UserInfo{
		ID:        id,
		Username:  username,
		Name:      name,
		Email:     email,
		AvatarURL: "https://example.com/avatar.png",
		Provider:  "github",
	}
}
