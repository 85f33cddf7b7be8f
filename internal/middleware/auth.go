package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/pkg/dto"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UsernameKey  = "username"

	// SessionCookie carries the browser session JWT.
	SessionCookie = "splitrail_session"
)

func abort(c *drift.Context, status int, message string) {
	_ = c.JSON(status, dto.Fail(message))
	c.Abort()
}

// bearerToken extracts the credential from the Authorization header. ok is
// false when the header is present but malformed.
func bearerToken(c *drift.Context) (token string, present, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", true, false
	}
	return parts[1], true, true
}

// sessionToken prefers the Authorization header and falls back to the
// session cookie.
func sessionToken(c *drift.Context) (string, string) {
	token, present, ok := bearerToken(c)
	if present {
		if !ok {
			return "", "invalid authorization header format"
		}
		return token, ""
	}

	if cookie, err := c.Request.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, ""
	}
	return "", "missing authorization header"
}

func setClaims(c *drift.Context, claims *services.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UsernameKey, claims.Username)
}

// Auth requires a valid session, either as a bearer JWT or as the session
// cookie set by the OAuth callback.
func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, problem := sessionToken(c)
		if problem != "" {
			abort(c, http.StatusUnauthorized, problem)
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the session when there is one and lets every
// request through. Pages use it to pick between signed-in and signed-out
// rendering.
func OptionalAuth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		if token, problem := sessionToken(c); problem == "" {
			if claims, err := jwtService.ValidateAccessToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	return getString(c, UserEmailKey)
}

func GetUsername(c *drift.Context) string {
	return getString(c, UsernameKey)
}

func getString(c *drift.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
