package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/splitrail/splitrail-web/internal/config"
	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
)

type GitHubProvider struct {
	config *oauth2.Config
	// apiBaseURL overrides https://api.github.com/ when set.
	apiBaseURL string
}

func NewGitHubProvider(cfg config.OAuthConfig) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"user:email", "read:user"},
			Endpoint:     githubendpoint.Endpoint,
		},
	}
}

func (p *GitHubProvider) Name() string {
	return "github"
}

func (p *GitHubProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client, err := p.apiClient(ctx, token)
	if err != nil {
		return nil, err
	}

	ghUser, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	email := ghUser.GetEmail()
	if email == "" {
		email, err = p.getPrimaryEmail(ctx, client)
		if err != nil {
			return nil, err
		}
	}

	return &UserInfo{
		ID:        strconv.FormatInt(ghUser.GetID(), 10),
		Username:  ghUser.GetLogin(),
		Name:      ghUser.GetName(),
		Email:     email,
		AvatarURL: ghUser.GetAvatarURL(),
		Provider:  "github",
	}, nil
}

func (p *GitHubProvider) apiClient(ctx context.Context, token *oauth2.Token) (*github.Client, error) {
	client := github.NewClient(p.config.Client(ctx, token))
	if p.apiBaseURL == "" {
		return client, nil
	}

	base := p.apiBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url: %w", err)
	}
	client.BaseURL = u
	return client, nil
}

func (p *GitHubProvider) getPrimaryEmail(ctx context.Context, client *github.Client) (string, error) {
	emails, _, err := client.Users.ListEmails(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get user emails: %w", err)
	}

	for _, e := range emails {
		if e.GetPrimary() && e.GetVerified() {
			return e.GetEmail(), nil
		}
	}

	for _, e := range emails {
		if e.GetVerified() {
			return e.GetEmail(), nil
		}
	}

	// GitHub accounts may hide every address; the session works without one.
	return "", nil
}
