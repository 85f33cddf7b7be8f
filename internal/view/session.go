package view

import (
	"net/url"

	"github.com/splitrail/splitrail-web/pkg/format"
)

type SessionStatus int

const (
	// SessionLoading means the identity could not be resolved yet. The
	// navbar shows a progress indicator and offers no interaction.
	SessionLoading SessionStatus = iota
	SessionAuthenticated
	SessionUnauthenticated
)

// SessionUser is the identity shown in the navbar.
type SessionUser struct {
	ID                string
	Username          string
	Name              string
	Email             string
	Image             string
	DisplayPreference string
}

// Session is passed explicitly to every page; templates never look up the
// current user on their own.
type Session struct {
	Status SessionStatus
	User   *SessionUser
}

func Loading() Session { return Session{Status: SessionLoading} }

func Anonymous() Session { return Session{Status: SessionUnauthenticated} }

func Authenticated(u SessionUser) Session {
	return Session{Status: SessionAuthenticated, User: &u}
}

func (s Session) IsLoading() bool { return s.Status == SessionLoading }

func (s Session) IsAuthenticated() bool {
	return s.Status == SessionAuthenticated && s.User != nil
}

// DisplayName resolves the name to show, honoring the user's preference.
func (s Session) DisplayName() string {
	if s.User == nil {
		return ""
	}
	return format.DisplayName(s.User.Username, s.User.Name, format.DisplayPreference(s.User.DisplayPreference))
}

// ShowUsername reports whether @username is shown next to the display
// name, i.e. when the two differ.
func (s Session) ShowUsername() bool {
	return s.User != nil && s.User.Username != "" && s.User.Username != s.DisplayName()
}

func (s Session) ProfileURL() string {
	if s.User == nil || s.User.Username == "" {
		return ""
	}
	return "https://github.com/" + url.PathEscape(s.User.Username)
}
