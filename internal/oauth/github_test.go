package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/splitrail/splitrail-web/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGitHubProvider(t *testing.T, api http.HandlerFunc) *GitHubProvider {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer"}`))
	}))
	t.Cleanup(tokenServer.Close)

	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  tokenServer.URL + "/authorize",
				TokenURL: tokenServer.URL + "/token",
			},
		},
		apiBaseURL: apiServer.URL,
	}
}

func TestGitHubProvider_Name(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{})
	assert.Equal(t, "github", provider.Name())
}

func TestGitHubProvider_GetConsentURL(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost/callback",
	})

	url := provider.GetConsentURL("test-state")

	assert.Contains(t, url, "github.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
	assert.Contains(t, url, "redirect_uri=http")
}

func TestGitHubProvider_ExchangeCode_Success(t *testing.T) {
	provider := newTestGitHubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/user" {
			_, _ = w.Write([]byte(`{
				"id": 12345,
				"login": "octocat",
				"name": "Octo Cat",
				"email": "octo@example.com",
				"avatar_url": "https://avatars.githubusercontent.com/u/12345"
			}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	info, err := provider.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, "12345", info.ID)
	assert.Equal(t, "octocat", info.Username)
	assert.Equal(t, "Octo Cat", info.Name)
	assert.Equal(t, "octo@example.com", info.Email)
	assert.Equal(t, "https://avatars.githubusercontent.com/u/12345", info.AvatarURL)
	assert.Equal(t, "github", info.Provider)
}

func TestGitHubProvider_ExchangeCode_EmailFallback(t *testing.T) {
	emailsFetched := false
	provider := newTestGitHubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id": 7, "login": "private", "name": ""}`))
		case "/user/emails":
			emailsFetched = true
			_, _ = w.Write([]byte(`[
				{"email": "unverified@example.com", "primary": false, "verified": false},
				{"email": "secondary@example.com", "primary": false, "verified": true},
				{"email": "primary@example.com", "primary": true, "verified": true}
			]`))
		}
	})

	info, err := provider.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.True(t, emailsFetched)
	assert.Equal(t, "primary@example.com", info.Email)
	assert.Equal(t, "private", info.Username)
	assert.Empty(t, info.Name)
}

func TestGitHubProvider_ExchangeCode_NoVerifiedEmail(t *testing.T) {
	provider := newTestGitHubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id": 7, "login": "hidden"}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[]`))
		}
	})

	info, err := provider.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Empty(t, info.Email)
}

func TestGitHubProvider_ExchangeCode_APIError(t *testing.T) {
	provider := newTestGitHubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := provider.ExchangeCode(context.Background(), "code")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get user info")
}
