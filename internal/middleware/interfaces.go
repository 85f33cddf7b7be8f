package middleware

import (
	"context"

	"github.com/splitrail/splitrail-web/internal/models"
)

// APITokenAuthenticator is the part of the API token service the CLI auth
// middleware needs.
type APITokenAuthenticator interface {
	Authenticate(ctx context.Context, secret string) (*models.APIToken, error)
}
