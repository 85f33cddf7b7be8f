package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/config"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/oauth"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/pkg/dto"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 5 * time.Minute
)

type AuthHandler struct {
	cfg          *config.Config
	providers    map[string]oauth.Provider
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	states       sync.Map
	authCodes    sync.Map
}

// stateData remembers where an OAuth round trip started. Browser logins
// carry the page to return to; CLI logins show a one-time code instead.
type stateData struct {
	expiresAt time.Time
	next      string
	cli       bool
}

type authCodeData struct {
	userID    uuid.UUID
	expiresAt time.Time
}

func NewAuthHandler(
	cfg *config.Config,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
) *AuthHandler {
	h := &AuthHandler{
		cfg:          cfg,
		providers:    make(map[string]oauth.Provider),
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
	}

	if cfg.GitHub.ClientID != "" {
		h.providers["github"] = oauth.NewGitHubProvider(cfg.GitHub)
	}

	return h
}

// RunCleanup evicts expired states and codes until ctx is done.
func (h *AuthHandler) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.cleanup(now)
		}
	}
}

func (h *AuthHandler) cleanup(now time.Time) {
	h.states.Range(func(key, value interface{}) bool {
		if sd, ok := value.(stateData); ok && now.After(sd.expiresAt) {
			h.states.Delete(key)
		}
		return true
	})
	h.authCodes.Range(func(key, value interface{}) bool {
		if acd, ok := value.(authCodeData); ok && now.After(acd.expiresAt) {
			h.authCodes.Delete(key)
		}
		return true
	})
}

func (h *AuthHandler) newState(next string, cli bool) (string, error) {
	state, err := oauth.GenerateState()
	if err != nil {
		return "", err
	}
	h.states.Store(state, stateData{
		expiresAt: time.Now().Add(stateTTL),
		next:      next,
		cli:       cli,
	})
	return state, nil
}

// safeNext only allows same-site relative paths as post-login targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}

// Login starts the browser sign-in and redirects to the provider.
func (h *AuthHandler) Login(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		fail(c, http.StatusBadRequest, "unsupported provider: "+provider)
		return
	}

	state, err := h.newState(safeNext(c.QueryParam("next")), false)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to generate state")
		return
	}

	http.Redirect(c.Response, c.Request, p.GetConsentURL(state), http.StatusFound)
	c.Abort()
}

// GetConsentURL is the CLI entry point: it returns the URL to open and the
// callback page shows a code to paste back.
func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		fail(c, http.StatusBadRequest, "unsupported provider: "+provider)
		return
	}

	state, err := h.newState("", true)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to generate state")
		return
	}

	respond(c, http.StatusOK, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		h.renderError(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.renderError(c, "missing state parameter")
		return
	}

	sd, ok := h.states.LoadAndDelete(state)
	if !ok {
		h.renderError(c, "invalid or expired state")
		return
	}

	sdTyped, ok := sd.(stateData)
	if !ok || time.Now().After(sdTyped.expiresAt) {
		h.renderError(c, "state expired")
		return
	}

	if errParam := c.QueryParam("error"); errParam != "" {
		h.renderError(c, "sign-in was cancelled: "+errParam)
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.renderError(c, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	userInfo, err := p.ExchangeCode(ctx, code)
	if err != nil {
		slog.Warn("oauth code exchange failed", "provider", provider, "error", err)
		h.renderError(c, "failed to exchange code")
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, userInfo)
	if err != nil {
		slog.Error("failed to upsert oauth user", "provider", provider, "error", err)
		h.renderError(c, "failed to create user")
		return
	}

	if err := h.setSessionCookie(c, user); err != nil {
		slog.Error("failed to issue session", "user_id", user.ID, "error", err)
		h.renderError(c, "failed to start session")
		return
	}

	slog.Info("user signed in", "user_id", user.ID, "username", user.Username, "cli", sdTyped.cli)

	if !sdTyped.cli {
		http.Redirect(c.Response, c.Request, safeNext(sdTyped.next), http.StatusFound)
		c.Abort()
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.renderError(c, "failed to generate auth code")
		return
	}

	h.authCodes.Store(authCode, authCodeData{
		userID:    user.ID,
		expiresAt: time.Now().Add(authCodeTTL),
	})

	h.renderCallbackPage(c, http.StatusOK, callbackPage{
		Title:   "Sign-in Successful",
		Heading: "You're signed in!",
		Message: "Paste the code below into splitrailctl to finish signing in.",
		Code:    authCode,
	})
}

func (h *AuthHandler) setSessionCookie(c *drift.Context, user *models.User) error {
	token, err := h.jwtService.GenerateSessionToken(user.ID, user.Email, user.Username, h.cfg.SessionExpiry)
	if err != nil {
		return err
	}
	http.SetCookie(c.Response, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionExpiry.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(c *drift.Context, secure bool) {
	http.SetCookie(c.Response, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Code == "" {
		fail(c, http.StatusBadRequest, "code is required")
		return
	}

	acd, ok := h.authCodes.LoadAndDelete(req.Code)
	if !ok {
		fail(c, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	codeData, ok := acd.(authCodeData)
	if !ok || time.Now().After(codeData.expiresAt) {
		fail(c, http.StatusUnauthorized, "code expired")
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, codeData.userID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "user not found")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email, user.Username)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	tokenHash := services.HashToken(tokenPair.RefreshToken)
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, user.ID, tokenHash, expiresAt); err != nil {
		fail(c, http.StatusInternalServerError, "failed to store refresh token")
		return
	}

	respond(c, http.StatusOK, dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RefreshToken == "" {
		fail(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "user not found")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email, user.Username)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	oldHash := services.HashToken(req.RefreshToken)
	newHash := services.HashToken(tokenPair.RefreshToken)
	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.RotateRefreshToken(ctx, userID, oldHash, newHash, expiresAt); err != nil {
		fail(c, http.StatusUnauthorized, "refresh token not found or expired")
		return
	}

	respond(c, http.StatusOK, dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

// Logout revokes the refresh token when one is sent and clears the browser
// session. Form posts from the navbar are sent back to the home page.
func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength != 0 && strings.HasPrefix(c.GetHeader("Content-Type"), "application/json") {
		if err := c.BindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if req.RefreshToken != "" {
		tokenHash := services.HashToken(req.RefreshToken)
		_ = h.tokenService.RevokeRefreshToken(c.Request.Context(), tokenHash)
	}

	clearSessionCookie(c, h.cfg.IsProduction())

	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		http.Redirect(c.Response, c.Request, "/", http.StatusSeeOther)
		c.Abort()
		return
	}
	respondEmpty(c)
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		fail(c, http.StatusInternalServerError, "failed to revoke tokens")
		return
	}

	clearSessionCookie(c, h.cfg.IsProduction())
	respondEmpty(c)
}

type callbackPage struct {
	Title   string
	Heading string
	Message string
	Code    string
	Failed  bool
}

func (h *AuthHandler) renderError(c *drift.Context, message string) {
	h.renderCallbackPage(c, http.StatusBadRequest, callbackPage{
		Title:   "Sign-in Failed",
		Heading: "Sign-in failed",
		Message: message,
		Failed:  true,
	})
}

var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} · Splitrail</title>
    <style>
        * { box-sizing: border-box; }
        body { font-family: system-ui, -apple-system, sans-serif; background: #f9fafb; color: #374151; margin: 0; padding: 40px 20px; min-height: 100vh; }
        .container { max-width: 420px; margin: 0 auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 40px 32px; text-align: center; }
        h1 { font-size: 20px; font-weight: 600; margin: 0 0 8px 0; }
        h1.failed { color: #991b1b; }
        .subtitle { color: #6b7280; font-size: 14px; margin: 0 0 16px 0; }
        .code-container { display: flex; align-items: center; background: #f3f4f6; border: 1px solid #e5e7eb; border-radius: 6px; padding: 8px 12px; gap: 8px; }
        .code-container code { flex: 1; font-family: monospace; font-size: 13px; color: #111827; word-break: break-all; text-align: left; }
        .copy-btn { background: #374151; color: #fff; border: none; border-radius: 4px; padding: 6px 12px; font-size: 12px; cursor: pointer; }
        a { color: #2563eb; }
    </style>
</head>
<body>
    <div class="container">
        <h1{{if .Failed}} class="failed"{{end}}>{{.Heading}}</h1>
        <p class="subtitle">{{.Message}}</p>
        {{- if .Code}}
        <div class="code-container">
            <code id="auth-code">{{.Code}}</code>
            <button onclick="copyCode()" class="copy-btn" id="copy-btn">Copy</button>
        </div>
        <script>
            function copyCode() {
                var code = document.getElementById('auth-code').textContent;
                navigator.clipboard.writeText(code).then(function() {
                    document.getElementById('copy-btn').textContent = 'Copied!';
                    setTimeout(function() { document.getElementById('copy-btn').textContent = 'Copy'; }, 2000);
                });
            }
        </script>
        {{- else}}
        <p><a href="/">Back to Splitrail</a></p>
        {{- end}}
    </div>
</body>
</html>`))

func (h *AuthHandler) renderCallbackPage(c *drift.Context, status int, page callbackPage) {
	var b strings.Builder
	if err := callbackTemplate.Execute(&b, page); err != nil {
		fail(c, http.StatusInternalServerError, fmt.Sprintf("failed to render page: %v", err))
		return
	}
	_ = c.HTML(status, b.String())
}
