package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/internal/view"
	"golang.org/x/text/language"
)

// PagesHandler serves the server-rendered site. Routes are mounted behind
// OptionalAuth so anonymous visitors get the signed-out rendering.
type PagesHandler struct {
	renderer        *view.Renderer
	origin          string
	userService     UserServiceInterface
	apiTokenService APITokenServiceInterface
	usageService    UsageServiceInterface
}

func NewPagesHandler(
	renderer *view.Renderer,
	origin string,
	userService UserServiceInterface,
	apiTokenService APITokenServiceInterface,
	usageService UsageServiceInterface,
) *PagesHandler {
	return &PagesHandler{
		renderer:        renderer,
		origin:          strings.TrimRight(origin, "/"),
		userService:     userService,
		apiTokenService: apiTokenService,
		usageService:    usageService,
	}
}

// session resolves the identity for the navbar. A lookup failure other than
// a missing user leaves the session unresolved rather than signed out.
func (h *PagesHandler) session(c *drift.Context) view.Session {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return view.Anonymous()
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return view.Anonymous()
	}
	if err != nil {
		slog.Warn("failed to resolve session user", "user_id", userID, "error", err)
		return view.Loading()
	}

	su := view.SessionUser{
		ID:                user.ID.String(),
		Username:          user.Username,
		Name:              user.Name,
		Email:             user.Email,
		DisplayPreference: user.DisplayPreference,
	}
	if user.AvatarURL != nil {
		su.Image = *user.AvatarURL
	}
	return view.Authenticated(su)
}

// requestLocale picks the first Accept-Language tag.
func requestLocale(r *http.Request) string {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

func (h *PagesHandler) page(c *drift.Context, title string, session view.Session, content any) view.Page {
	if title != "" {
		title += " · " + view.SiteTitle
	}
	return view.Page{
		Title:   title,
		Theme:   view.ThemeFromRequest(c.Request),
		Locale:  requestLocale(c.Request),
		Session: session,
		Origin:  h.origin,
		Now:     time.Now(),
		Content: content,
	}
}

func (h *PagesHandler) render(c *drift.Context, status int, name string, page view.Page) {
	var b bytes.Buffer
	if err := h.renderer.Render(&b, name, page); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		_ = c.HTML(http.StatusInternalServerError, "<h1>Something went wrong</h1>")
		return
	}
	_ = c.HTML(status, b.String())
}

func (h *PagesHandler) Home(c *drift.Context) {
	h.render(c, http.StatusOK, "home", h.page(c, "", h.session(c), nil))
}

func (h *PagesHandler) Tokens(c *drift.Context) {
	session := h.session(c)
	content := view.TokensPage{}

	if session.IsAuthenticated() {
		userID := middleware.GetUserID(c)
		tokens, err := h.apiTokenService.List(c.Request.Context(), userID)
		if err != nil {
			slog.Error("failed to list api tokens", "user_id", userID, "error", err)
			content.Message = &view.Message{Kind: view.MessageError, Text: "Failed to fetch tokens"}
		}

		created := c.QueryParam("created")
		for _, t := range tokens {
			content.Tokens = append(content.Tokens, view.TokenRow{
				ID:        t.ID.String(),
				Name:      t.Name,
				Secret:    t.Token,
				Visible:   created != "" && t.ID.String() == created,
				CreatedAt: t.CreatedAt,
				LastUsed:  t.LastUsedAt,
			})
		}

		if content.Message == nil {
			content.Message = flashMessage(c)
		}
	}

	h.render(c, http.StatusOK, "tokens", h.page(c, "API Tokens", session, content))
}

const (
	flashTokenLimit   = "limit"
	flashNotFound     = "not_found"
	flashCreateFailed = "create_failed"
	flashDeleteFailed = "delete_failed"
)

// flashErrors is the only text an ?error= code can put on the page.
var flashErrors = map[string]string{
	flashTokenLimit:   tokenLimitMessage,
	flashNotFound:     "Token not found",
	flashCreateFailed: "Failed to create token",
	flashDeleteFailed: "Failed to delete token",
}

func flashMessage(c *drift.Context) *view.Message {
	if code := c.QueryParam("error"); code != "" {
		if text, ok := flashErrors[code]; ok {
			return &view.Message{Kind: view.MessageError, Text: text}
		}
		return nil
	}
	switch {
	case c.QueryParam("created") != "":
		return &view.Message{Kind: view.MessageSuccess, Text: "Token created successfully!"}
	case c.QueryParam("deleted") != "":
		return &view.Message{Kind: view.MessageSuccess, Text: "Token deleted successfully!"}
	}
	return nil
}

func redirect(c *drift.Context, target string) {
	http.Redirect(c.Response, c.Request, target, http.StatusSeeOther)
	c.Abort()
}

func tokensRedirectError(code string) string {
	return "/tokens?error=" + url.QueryEscape(code)
}

// CreateToken handles the create form on the tokens page.
func (h *PagesHandler) CreateToken(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		redirect(c, "/api/auth/github/login?next=/tokens")
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		redirect(c, tokensRedirectError(flashCreateFailed))
		return
	}

	token, err := h.apiTokenService.Create(c.Request.Context(), userID, c.Request.PostFormValue("name"))
	if err != nil {
		if errors.Is(err, services.ErrTokenLimitReached) {
			redirect(c, tokensRedirectError(flashTokenLimit))
			return
		}
		slog.Error("failed to create api token", "user_id", userID, "error", err)
		redirect(c, tokensRedirectError(flashCreateFailed))
		return
	}

	redirect(c, "/tokens?created="+token.ID.String())
}

func (h *PagesHandler) DeleteToken(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		redirect(c, "/api/auth/github/login?next=/tokens")
		return
	}

	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		redirect(c, tokensRedirectError(flashNotFound))
		return
	}

	if err := h.apiTokenService.Delete(c.Request.Context(), userID, tokenID); err != nil {
		if errors.Is(err, services.ErrAPITokenNotFound) {
			redirect(c, tokensRedirectError(flashNotFound))
			return
		}
		slog.Error("failed to delete api token", "user_id", userID, "token_id", tokenID, "error", err)
		redirect(c, tokensRedirectError(flashDeleteFailed))
		return
	}

	redirect(c, "/tokens?deleted=1")
}

func (h *PagesHandler) Dashboard(c *drift.Context) {
	session := h.session(c)
	page := h.page(c, "Dashboard", session, nil)
	content := view.DashboardPage{}

	ctx := c.Request.Context()
	if session.IsAuthenticated() {
		totals, err := h.usageService.Totals(ctx, middleware.GetUserID(c))
		if err != nil {
			slog.Error("failed to load usage totals", "error", err)
		} else {
			content.Stats = BuildStats(totals, page.Locale, page.Now)
		}
	}

	entries, err := h.usageService.Leaderboard(ctx, 0)
	if err != nil {
		slog.Error("failed to load leaderboard", "error", err)
	}
	content.Leaderboard = BuildLeaderboard(entries)

	page.Content = content
	h.render(c, http.StatusOK, "dashboard", page)
}

// SetTheme stores the theme choice and returns to the home page.
func (h *PagesHandler) SetTheme(c *drift.Context) {
	theme := view.ParseTheme(c.Param("theme"))
	http.SetCookie(c.Response, &http.Cookie{
		Name:     view.ThemeCookie,
		Value:    string(theme),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(c, "/")
}
