package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/internal/sse"
	"github.com/splitrail/splitrail-web/pkg/dto"
	"github.com/splitrail/splitrail-web/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAPITokenTest(t *testing.T) (*testutil.MockAPITokenService, *testutil.HTTPTestClient, uuid.UUID, map[string]string) {
	t.Helper()
	mockService := new(testutil.MockAPITokenService)
	handler := NewAPITokenHandler(mockService)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))
	app.Get("/user/token", handler.List)
	app.Post("/user/token", handler.Create)
	app.Delete("/user/token", handler.Delete)

	userID := uuid.New()
	headers := map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "octocat@github.com", "octocat")),
	}
	return mockService, testutil.NewHTTPTestClient(t, app), userID, headers
}

func TestAPITokenHandler_List(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)

	used := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := []models.APIToken{
		{ID: uuid.New(), UserID: userID, Token: "st_aaaaaaaaaaaaaaaaaaaaaaaaaa", Name: "Laptop", LastUsedAt: &used, CreatedAt: used},
		{ID: uuid.New(), UserID: userID, Token: "st_bbbbbbbbbbbbbbbbbbbbbbbbbb", Name: "CI", CreatedAt: used.Add(-time.Hour)},
	}
	mockService.On("List", mock.Anything, userID).Return(tokens, nil)

	rec := client.GET("/user/token", headers)

	testutil.AssertStatus(t, rec, http.StatusOK)
	env := decodeEnvelope[dto.APITokenList](t, rec)
	require.True(t, env.Success)
	require.Len(t, env.Data.Tokens, 2)
	assert.Equal(t, "Laptop", env.Data.Tokens[0].Name)
	assert.Equal(t, tokens[0].Token, env.Data.Tokens[0].Token)
	require.NotNil(t, env.Data.Tokens[0].LastUsed)
	assert.True(t, used.Equal(*env.Data.Tokens[0].LastUsed))
	assert.Nil(t, env.Data.Tokens[1].LastUsed)
	assert.Contains(t, rec.Body.String(), `"lastUsed":null`)
}

func TestAPITokenHandler_List_Empty(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)
	mockService.On("List", mock.Anything, userID).Return([]models.APIToken{}, nil)

	rec := client.GET("/user/token", headers)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.JSONEq(t, `{"success":true,"data":{"tokens":[]}}`, rec.Body.String())
}

func TestAPITokenHandler_List_Error(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)
	mockService.On("List", mock.Anything, userID).Return(nil, errors.New("connection reset"))

	rec := client.GET("/user/token", headers)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to fetch tokens"}`, rec.Body.String())
}

func TestAPITokenHandler_List_Unauthenticated(t *testing.T) {
	_, client, _, _ := setupAPITokenTest(t)

	rec := client.GET("/user/token", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPITokenHandler_Create(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)

	created := &models.APIToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     "st_cccccccccccccccccccccccccc",
		Name:      "My Laptop",
		CreatedAt: time.Now(),
	}
	mockService.On("Create", mock.Anything, userID, "My Laptop").Return(created, nil)

	rec := client.POST("/user/token", dto.CreateAPITokenRequest{Name: "My Laptop"}, headers)

	testutil.AssertStatus(t, rec, http.StatusOK)
	env := decodeEnvelope[dto.APITokenCreated](t, rec)
	assert.Equal(t, created.ID.String(), env.Data.Token.ID)
	assert.Equal(t, created.Token, env.Data.Token.Token)
	mockService.AssertExpectations(t)
}

func TestAPITokenHandler_Create_NoBody(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)

	mockService.On("Create", mock.Anything, userID, "").Return(&models.APIToken{
		ID:    uuid.New(),
		Token: "st_dddddddddddddddddddddddddd",
		Name:  "CLI Token 1",
	}, nil)

	rec := client.POST("/user/token", nil, headers)

	testutil.AssertStatus(t, rec, http.StatusOK)
	env := decodeEnvelope[dto.APITokenCreated](t, rec)
	assert.Equal(t, "CLI Token 1", env.Data.Token.Name)
}

func TestAPITokenHandler_Create_LimitReached(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)
	mockService.On("Create", mock.Anything, userID, "").Return(nil, services.ErrTokenLimitReached)

	rec := client.POST("/user/token", dto.CreateAPITokenRequest{}, headers)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope[struct{}](t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Maximum of 50 tokens reached. Delete some tokens to create new ones.", env.Error)
}

func TestAPITokenHandler_Create_Error(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)
	mockService.On("Create", mock.Anything, userID, "x").Return(nil, errors.New("boom"))

	rec := client.POST("/user/token", dto.CreateAPITokenRequest{Name: "x"}, headers)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to create token")
}

func TestAPITokenHandler_Delete(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)
	tokenID := uuid.New()
	mockService.On("Delete", mock.Anything, userID, tokenID).Return(nil)

	rec := client.DELETE("/user/token?tokenId="+tokenID.String(), headers)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	mockService.AssertExpectations(t)
}

func TestAPITokenHandler_Delete_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing id", "/user/token", "Token ID is required"},
		{"malformed id", "/user/token?tokenId=abc", "invalid token id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, client, _, headers := setupAPITokenTest(t)

			rec := client.DELETE(tt.path, headers)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			mockService.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAPITokenHandler_Delete_NotFound(t *testing.T) {
	mockService, client, userID, headers := setupAPITokenTest(t)
	tokenID := uuid.New()
	mockService.On("Delete", mock.Anything, userID, tokenID).Return(services.ErrAPITokenNotFound)

	rec := client.DELETE("/user/token?tokenId="+tokenID.String(), headers)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token not found")
}

func TestAPITokenHandler_PublishesChanges(t *testing.T) {
	mockService := new(testutil.MockAPITokenService)
	events := &recordingPublisher{}
	handler := NewAPITokenHandler(mockService).WithEvents(events)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))
	app.Post("/user/token", handler.Create)
	app.Delete("/user/token", handler.Delete)

	userID := uuid.New()
	headers := map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "octocat@github.com", "octocat")),
	}
	client := testutil.NewHTTPTestClient(t, app)

	tokenID := uuid.New()
	mockService.On("Create", mock.Anything, userID, "ci").Return(&models.APIToken{ID: tokenID, Token: "st_eeeeeeeeeeeeeeeeeeeeeeeeee", Name: "ci"}, nil)
	mockService.On("Delete", mock.Anything, userID, tokenID).Return(nil)

	testutil.AssertStatus(t, client.POST("/user/token", dto.CreateAPITokenRequest{Name: "ci"}, headers), http.StatusOK)
	testutil.AssertStatus(t, client.DELETE("/user/token?tokenId="+tokenID.String(), headers), http.StatusOK)

	assert.Equal(t, []sse.Event{
		sse.TokensChanged("created", tokenID.String()),
		sse.TokensChanged("deleted", tokenID.String()),
	}, events.For(userID))
}

func TestAPITokenHandler_NoEventOnFailure(t *testing.T) {
	mockService := new(testutil.MockAPITokenService)
	events := &recordingPublisher{}
	handler := NewAPITokenHandler(mockService).WithEvents(events)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))
	app.Post("/user/token", handler.Create)

	userID := uuid.New()
	headers := map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "octocat@github.com", "octocat")),
	}
	mockService.On("Create", mock.Anything, userID, "").Return(nil, services.ErrTokenLimitReached)

	rec := testutil.NewHTTPTestClient(t, app).POST("/user/token", nil, headers)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, events.For(userID))
}

