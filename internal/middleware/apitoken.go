package middleware

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/services"
)

const APITokenIDKey = "api_token_id"

// APITokenAuth authenticates the CLI by its st_ bearer token. On success the
// token owner becomes the request user.
func APITokenAuth(apiTokens APITokenAuthenticator) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		apiToken, err := apiTokens.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrAPITokenInvalid) {
				abort(c, http.StatusUnauthorized, "invalid api token")
				return
			}
			abort(c, http.StatusInternalServerError, "failed to verify api token")
			return
		}

		c.Set(UserIDKey, apiToken.UserID)
		c.Set(APITokenIDKey, apiToken.ID)
		c.Next()
	}
}

// GetAPITokenID returns the id of the token that authenticated the request.
func GetAPITokenID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(APITokenIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}
