package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/metrics"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/internal/sse"
	"github.com/splitrail/splitrail-web/pkg/apitoken"
	"github.com/splitrail/splitrail-web/pkg/dto"
)

var tokenLimitMessage = fmt.Sprintf("Maximum of %d tokens reached. Delete some tokens to create new ones.", apitoken.MaxPerUser)

type APITokenHandler struct {
	apiTokenService APITokenServiceInterface
	events          EventPublisher
}

func NewAPITokenHandler(apiTokenService APITokenServiceInterface) *APITokenHandler {
	return &APITokenHandler{apiTokenService: apiTokenService}
}

func (h *APITokenHandler) WithEvents(events EventPublisher) *APITokenHandler {
	h.events = events
	return h
}

func toAPITokenDTO(t *models.APIToken) dto.APIToken {
	return dto.APIToken{
		ID:        t.ID.String(),
		Token:     t.Token,
		Name:      t.Name,
		LastUsed:  t.LastUsedAt,
		CreatedAt: t.CreatedAt,
	}
}

func (h *APITokenHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tokens, err := h.apiTokenService.List(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to list api tokens", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch tokens")
		return
	}

	resp := dto.APITokenList{Tokens: make([]dto.APIToken, 0, len(tokens))}
	for i := range tokens {
		resp.Tokens = append(resp.Tokens, toAPITokenDTO(&tokens[i]))
	}
	respond(c, http.StatusOK, resp)
}

func (h *APITokenHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.CreateAPITokenRequest
	if c.Request.ContentLength != 0 {
		if err := c.BindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	token, err := h.apiTokenService.Create(c.Request.Context(), userID, req.Name)
	metrics.ObserveToken("create", err)
	if err != nil {
		if errors.Is(err, services.ErrTokenLimitReached) {
			fail(c, http.StatusConflict, tokenLimitMessage)
			return
		}
		slog.Error("failed to create api token", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to create token")
		return
	}

	slog.Info("api token created", "user_id", userID, "token_id", token.ID)
	publish(h.events, userID, sse.TokensChanged("created", token.ID.String()))
	respond(c, http.StatusOK, dto.APITokenCreated{Token: toAPITokenDTO(token)})
}

// Delete takes the token id from the tokenId query parameter.
func (h *APITokenHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	raw := c.QueryParam("tokenId")
	if raw == "" {
		fail(c, http.StatusBadRequest, "Token ID is required")
		return
	}
	tokenID, err := uuid.Parse(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid token id")
		return
	}

	err = h.apiTokenService.Delete(c.Request.Context(), userID, tokenID)
	metrics.ObserveToken("delete", err)
	if err != nil {
		if errors.Is(err, services.ErrAPITokenNotFound) {
			fail(c, http.StatusNotFound, "Token not found")
			return
		}
		slog.Error("failed to delete api token", "user_id", userID, "token_id", tokenID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to delete token")
		return
	}

	publish(h.events, userID, sse.TokensChanged("deleted", tokenID.String()))
	respondEmpty(c)
}
