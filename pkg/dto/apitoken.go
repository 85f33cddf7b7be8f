package dto

import "time"

type APIToken struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	Name      string     `json:"name"`
	LastUsed  *time.Time `json:"lastUsed"`
	CreatedAt time.Time  `json:"createdAt"`
}

type APITokenList struct {
	Tokens []APIToken `json:"tokens"`
}

type APITokenCreated struct {
	Token APIToken `json:"token"`
}

type CreateAPITokenRequest struct {
	Name string `json:"name,omitempty"`
}
