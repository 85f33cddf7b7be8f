package view

import (
	"time"

	"github.com/splitrail/splitrail-web/pkg/apitoken"
	"github.com/splitrail/splitrail-web/pkg/dto"
)

const (
	SiteTitle       = "Splitrail"
	SiteDescription = "Blazing fast, single-executable, cross-platform, agentic development monitor"
)

// Page is the data every template receives.
type Page struct {
	Title   string
	Theme   Theme
	Locale  string
	Session Session
	// Origin is the public base URL, used in the CLI setup instructions.
	Origin  string
	Now     time.Time
	Content any
}

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

type Message struct {
	Kind MessageKind
	Text string
}

type TokenRow struct {
	ID        string
	Name      string
	Secret    string
	Visible   bool
	CreatedAt time.Time
	LastUsed  *time.Time
}

type TokensPage struct {
	Tokens  []TokenRow
	Message *Message
}

func (p TokensPage) Count() int { return len(p.Tokens) }

func (p TokensPage) Max() int { return apitoken.MaxPerUser }

// CanCreate is false once the cap is reached; the create button renders
// disabled.
func (p TokensPage) CanCreate() bool { return len(p.Tokens) < apitoken.MaxPerUser }

type DashboardPage struct {
	Stats       dto.Stats
	Leaderboard dto.Leaderboard
}
