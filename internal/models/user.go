package models

import (
	"time"

	"github.com/google/uuid"
)

// Display preferences stored per user.
const (
	PreferDisplayName = "displayName"
	PreferUsername    = "username"
)

type User struct {
	ID                uuid.UUID `json:"id"`
	GitHubID          string    `json:"github_id"`
	Username          string    `json:"username"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	AvatarURL         *string   `json:"avatar_url,omitempty"`
	DisplayPreference string    `json:"display_preference"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
