package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/pkg/dto"
	"github.com/splitrail/splitrail-web/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupUserApp(handler *UserHandler) http.Handler {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))
	app.Get("/users/me", handler.GetMe)
	app.Patch("/users/me", handler.UpdateMe)
	return app
}

func TestUserHandler_GetMe_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)

	userID := uuid.New()
	avatarURL := "https://avatars.githubusercontent.com/u/583231"
	user := &models.User{
		ID:                userID,
		Username:          "octocat",
		Name:              "The Octocat",
		Email:             "octocat@github.com",
		AvatarURL:         &avatarURL,
		DisplayPreference: models.PreferDisplayName,
	}
	mockUserService.On("GetByID", mock.Anything, userID).Return(user, nil)

	client := testutil.NewHTTPTestClient(t, setupUserApp(handler))
	rec := client.GET("/users/me", map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, user.Email, user.Username)),
	})

	testutil.AssertStatus(t, rec, http.StatusOK)
	env := decodeEnvelope[dto.User](t, rec)
	require.NotNil(t, env.Data)
	assert.Equal(t, userID.String(), env.Data.ID)
	assert.Equal(t, "octocat", env.Data.Username)
	assert.Equal(t, "The Octocat", env.Data.DisplayName)
	assert.Equal(t, &avatarURL, env.Data.AvatarURL)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_GetMe_UsernamePreferred(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)

	userID := uuid.New()
	mockUserService.On("GetByID", mock.Anything, userID).Return(&models.User{
		ID:                userID,
		Username:          "octocat",
		Name:              "The Octocat",
		DisplayPreference: models.PreferUsername,
	}, nil)

	client := testutil.NewHTTPTestClient(t, setupUserApp(handler))
	rec := client.GET("/users/me", map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "", "octocat")),
	})

	testutil.AssertStatus(t, rec, http.StatusOK)
	env := decodeEnvelope[dto.User](t, rec)
	assert.Equal(t, "octocat", env.Data.DisplayName)
}

func TestUserHandler_GetMe_Unauthorized(t *testing.T) {
	handler := NewUserHandler(new(testutil.MockUserService))

	rec := httptest.NewRecorder()
	setupUserApp(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_GetMe_NotFound(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)

	userID := uuid.New()
	mockUserService.On("GetByID", mock.Anything, userID).Return(nil, errors.New("no rows"))

	client := testutil.NewHTTPTestClient(t, setupUserApp(handler))
	rec := client.GET("/users/me", map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "", "ghost")),
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}

func TestUserHandler_UpdateMe(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)

	userID := uuid.New()
	mockUserService.On("UpdateDisplayPreference", mock.Anything, userID, models.PreferUsername).Return(&models.User{
		ID:                userID,
		Username:          "octocat",
		Name:              "The Octocat",
		DisplayPreference: models.PreferUsername,
	}, nil)

	client := testutil.NewHTTPTestClient(t, setupUserApp(handler))
	rec := client.PATCH("/users/me", dto.UpdateUserRequest{DisplayPreference: models.PreferUsername}, map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "", "octocat")),
	})

	testutil.AssertStatus(t, rec, http.StatusOK)
	env := decodeEnvelope[dto.User](t, rec)
	assert.Equal(t, models.PreferUsername, env.Data.DisplayPreference)
	assert.Equal(t, "octocat", env.Data.DisplayName)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_UpdateMe_InvalidPreference(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	handler := NewUserHandler(mockUserService)

	userID := uuid.New()
	mockUserService.On("UpdateDisplayPreference", mock.Anything, userID, "nickname").
		Return(nil, services.ErrInvalidDisplayPreference)

	client := testutil.NewHTTPTestClient(t, setupUserApp(handler))
	rec := client.PATCH("/users/me", dto.UpdateUserRequest{DisplayPreference: "nickname"}, map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "", "octocat")),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "display preference must be")
}

func TestUserHandler_UpdateMe_InvalidBody(t *testing.T) {
	handler := NewUserHandler(new(testutil.MockUserService))
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "", "octocat")))
	rec := httptest.NewRecorder()
	setupUserApp(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
