package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/splitrail/splitrail-web/pkg/dto"
)

// ErrAuthInFlight is returned when a sign-in or sign-out is started while
// another one is still running.
var ErrAuthInFlight = errors.New("sign-in or sign-out already in progress")

type AuthAPI interface {
	ConsentURL(ctx context.Context, provider string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// CodePrompt shows the consent URL to the user and returns the one-time
// code from the callback page.
type CodePrompt func(ctx context.Context, consentURL string) (string, error)

// AuthControl drives sign-in and sign-out. Both share one pending flag, so
// at most one transition runs at a time.
type AuthControl struct {
	api AuthAPI

	mu      sync.Mutex
	pending bool
}

func NewAuthControl(api AuthAPI) *AuthControl {
	return &AuthControl{api: api}
}

func (a *AuthControl) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *AuthControl) begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending {
		return ErrAuthInFlight
	}
	a.pending = true
	return nil
}

func (a *AuthControl) end() {
	a.mu.Lock()
	a.pending = false
	a.mu.Unlock()
}

func (a *AuthControl) SignIn(ctx context.Context, provider string, prompt CodePrompt) (*dto.TokenResponse, error) {
	if err := a.begin(); err != nil {
		return nil, err
	}
	defer a.end()

	consentURL, err := a.api.ConsentURL(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("start sign-in: %w", err)
	}

	code, err := prompt(ctx, consentURL)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, errors.New("no code entered")
	}

	tokens, err := a.api.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tokens, nil
}

func (a *AuthControl) SignOut(ctx context.Context, refreshToken string) error {
	if err := a.begin(); err != nil {
		return err
	}
	defer a.end()

	if err := a.api.Logout(ctx, refreshToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}
