package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/splitrail/splitrail-web/internal/database"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/oauth"
)

var ErrInvalidDisplayPreference = errors.New("display preference must be displayName or username")

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, github_id, username, name, email, avatar_url, display_preference, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID, &user.GitHubID, &user.Username, &user.Name, &user.Email,
		&user.AvatarURL, &user.DisplayPreference, &user.CreatedAt, &user.UpdatedAt,
	)
}

// FindOrCreateFromOAuth upserts the GitHub account, refreshing the profile
// fields on every sign-in.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (github_id, username, name, email, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (github_id) DO UPDATE SET
			username = EXCLUDED.username,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = NOW()
		RETURNING `+userColumns,
		info.ID, info.Username, info.Name, info.Email, nullableString(info.AvatarURL),
	), &user)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) UpdateDisplayPreference(ctx context.Context, id uuid.UUID, preference string) (*models.User, error) {
	if preference != models.PreferDisplayName && preference != models.PreferUsername {
		return nil, ErrInvalidDisplayPreference
	}

	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET display_preference = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns,
		preference, id,
	), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
