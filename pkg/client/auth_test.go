package client

import (
	"context"
	"errors"
	"testing"

	"github.com/splitrail/splitrail-web/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) ConsentURL(ctx context.Context, provider string) (string, error) {
	args := m.Called(ctx, provider)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) ExchangeCode(ctx context.Context, code string) (*dto.TokenResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TokenResponse), args.Error(1)
}

func (m *mockAuthAPI) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func TestAuthControl_SignIn(t *testing.T) {
	api := new(mockAuthAPI)
	api.On("ConsentURL", mock.Anything, "github").Return("https://github.com/login", nil)
	api.On("ExchangeCode", mock.Anything, "one-time").Return(&dto.TokenResponse{AccessToken: "a", RefreshToken: "r"}, nil)

	auth := NewAuthControl(api)
	var shown string
	tokens, err := auth.SignIn(context.Background(), "github", func(ctx context.Context, url string) (string, error) {
		shown = url
		assert.True(t, auth.Pending())
		return "one-time", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "https://github.com/login", shown)
	assert.Equal(t, "a", tokens.AccessToken)
	assert.False(t, auth.Pending())
	api.AssertExpectations(t)
}

func TestAuthControl_OverlappingTransitions(t *testing.T) {
	api := new(mockAuthAPI)
	api.On("ConsentURL", mock.Anything, "github").Return("https://github.com/login", nil)

	auth := NewAuthControl(api)
	_, err := auth.SignIn(context.Background(), "github", func(ctx context.Context, url string) (string, error) {
		assert.ErrorIs(t, auth.SignOut(ctx, "r"), ErrAuthInFlight)
		_, nested := auth.SignIn(ctx, "github", nil)
		assert.ErrorIs(t, nested, ErrAuthInFlight)
		return "", errors.New("cancelled")
	})

	assert.EqualError(t, err, "cancelled")
	assert.False(t, auth.Pending())
	api.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}

func TestAuthControl_EmptyCode(t *testing.T) {
	api := new(mockAuthAPI)
	api.On("ConsentURL", mock.Anything, "github").Return("u", nil)

	auth := NewAuthControl(api)
	_, err := auth.SignIn(context.Background(), "github", func(context.Context, string) (string, error) {
		return "", nil
	})

	assert.Error(t, err)
	api.AssertNotCalled(t, "ExchangeCode", mock.Anything, mock.Anything)
}

func TestAuthControl_SignOut(t *testing.T) {
	api := new(mockAuthAPI)
	api.On("Logout", mock.Anything, "r").Return(&APIError{Status: 500, Message: "boom"}).Once()

	auth := NewAuthControl(api)
	err := auth.SignOut(context.Background(), "r")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, auth.Pending())
}
