package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/splitrail/splitrail-web/pkg/apitoken"
)

const (
	MessageTTL = 5000 * time.Millisecond
	CopiedTTL  = 2000 * time.Millisecond
)

var (
	ErrClosed         = errors.New("token store closed")
	ErrCreateInFlight = errors.New("a token is already being created")
	ErrTokenLimit     = errors.New("token limit reached")
	ErrUnknownToken   = errors.New("unknown token")
)

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

type Message struct {
	Kind MessageKind
	Text string
}

// TokenAPI is the remote side of the store. *Client implements it.
type TokenAPI interface {
	HasSession() bool
	ListTokens(ctx context.Context) ([]Token, error)
	CreateToken(ctx context.Context, name string) (*Token, error)
	DeleteToken(ctx context.Context, id string) error
}

// TokenStore keeps the local view of a user's API tokens in step with the
// server. Mutations are confirmed by the server before they are applied.
type TokenStore struct {
	api       TokenAPI
	clipboard Clipboard
	scheduler Scheduler
	logger    *slog.Logger

	mu          sync.Mutex
	closed      bool
	loadSeq     uint64
	tokens      []Token
	loading     bool
	creating    bool
	visible     map[string]struct{}
	copied      map[string]*copyMark
	message     *Message
	messageTask Task
}

type copyMark struct {
	task Task
}

type StoreOption func(*TokenStore)

func WithScheduler(s Scheduler) StoreOption {
	return func(ts *TokenStore) {
		ts.scheduler = s
	}
}

func WithClipboard(c Clipboard) StoreOption {
	return func(ts *TokenStore) {
		ts.clipboard = c
	}
}

func WithLogger(l *slog.Logger) StoreOption {
	return func(ts *TokenStore) {
		ts.logger = l
	}
}

func NewTokenStore(api TokenAPI, opts ...StoreOption) *TokenStore {
	ts := &TokenStore{
		api:       api,
		scheduler: SystemScheduler,
		logger:    slog.Default(),
		visible:   make(map[string]struct{}),
		copied:    make(map[string]*copyMark),
	}
	for _, opt := range opts {
		opt(ts)
	}
	if ts.clipboard == nil {
		ts.clipboard = NewSystemClipboard(nil)
	}
	ts.logger = ts.logger.With("component", "token_store")
	return ts
}

// Snapshot is a copy of the store state, safe to read without locking.
type Snapshot struct {
	Tokens    []Token
	Loading   bool
	Creating  bool
	Visible   map[string]bool
	Copied    map[string]bool
	Message   *Message
	CanCreate bool
}

func (s *TokenStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Tokens:    append([]Token(nil), s.tokens...),
		Loading:   s.loading,
		Creating:  s.creating,
		Visible:   make(map[string]bool, len(s.visible)),
		Copied:    make(map[string]bool, len(s.copied)),
		CanCreate: s.canCreateLocked(),
	}
	for id := range s.visible {
		snap.Visible[id] = true
	}
	for id := range s.copied {
		snap.Copied[id] = true
	}
	if s.message != nil {
		m := *s.message
		snap.Message = &m
	}
	return snap
}

// Load replaces the local tokens with the server's list. On failure the
// previous list is kept and an error message is shown.
func (s *TokenStore) Load(ctx context.Context) error {
	if !s.api.HasSession() {
		return ErrNoSession
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadSeq++
	seq := s.loadSeq
	s.loading = true
	s.mu.Unlock()

	tokens, err := s.api.ListTokens(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if seq != s.loadSeq {
		// A newer load owns the loading flag and the result.
		return err
	}
	s.loading = false

	if err != nil {
		s.logger.Warn("failed to fetch tokens", "error", err)
		s.setMessageLocked(MessageError, messageFor(err, "Failed to fetch tokens"))
		return err
	}
	s.tokens = tokens
	return nil
}

func (s *TokenStore) CanCreate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canCreateLocked()
}

func (s *TokenStore) canCreateLocked() bool {
	return !s.closed && !s.creating && len(s.tokens) < apitoken.MaxPerUser
}

// Create mints a token. No request is sent while another create is in
// flight or once the user holds the maximum number of tokens.
func (s *TokenStore) Create(ctx context.Context, name string) (*Token, error) {
	if !s.api.HasSession() {
		return nil, ErrNoSession
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrClosed
	case s.creating:
		s.mu.Unlock()
		return nil, ErrCreateInFlight
	case len(s.tokens) >= apitoken.MaxPerUser:
		s.mu.Unlock()
		return nil, ErrTokenLimit
	}
	s.creating = true
	s.clearMessageLocked()
	s.mu.Unlock()

	token, err := s.api.CreateToken(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.creating = false

	if err != nil {
		s.logger.Warn("failed to create token", "error", err)
		s.setMessageLocked(MessageError, messageFor(err, "Failed to create token"))
		return nil, err
	}

	s.tokens = append([]Token{*token}, s.tokens...)
	s.visible[token.ID] = struct{}{}
	s.setMessageLocked(MessageSuccess, "Token created successfully!")
	return token, nil
}

// Delete removes a token once the server has confirmed the deletion.
func (s *TokenStore) Delete(ctx context.Context, id string) error {
	if !s.api.HasSession() {
		return ErrNoSession
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	err := s.api.DeleteToken(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err != nil {
		s.logger.Warn("failed to delete token", "token_id", id, "error", err)
		s.setMessageLocked(MessageError, messageFor(err, "Failed to delete token"))
		return err
	}

	kept := s.tokens[:0:0]
	for _, t := range s.tokens {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tokens = kept
	delete(s.visible, id)
	s.setMessageLocked(MessageSuccess, "Token deleted successfully!")
	return nil
}

// Copy puts the token secret on the clipboard and marks it copied for
// CopiedTTL. Copy failures are logged and never shown as a message.
func (s *TokenStore) Copy(id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	secret, ok := s.secretLocked(id)
	s.mu.Unlock()
	if !ok {
		return ErrUnknownToken
	}

	if err := s.clipboard.WriteAll(secret); err != nil {
		s.logger.Error("failed to copy token", "token_id", id, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if prev, ok := s.copied[id]; ok {
		prev.task.Stop()
	}
	mark := &copyMark{}
	s.copied[id] = mark
	mark.task = s.scheduler.AfterFunc(CopiedTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.copied[id] == mark {
			delete(s.copied, id)
		}
	})
	return nil
}

// ToggleVisibility flips whether a token is shown unmasked and returns the
// new state.
func (s *TokenStore) ToggleVisibility(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visible[id]; ok {
		delete(s.visible, id)
		return false
	}
	s.visible[id] = struct{}{}
	return true
}

// Display returns the secret as it should be shown: in full when visible,
// masked otherwise. Unknown ids yield "".
func (s *TokenStore) Display(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret, ok := s.secretLocked(id)
	if !ok {
		return ""
	}
	if _, shown := s.visible[id]; shown {
		return secret
	}
	return apitoken.Mask(secret)
}

// Close cancels pending timers. Responses that arrive afterwards are
// dropped.
func (s *TokenStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, mark := range s.copied {
		mark.task.Stop()
	}
	if s.messageTask != nil {
		s.messageTask.Stop()
		s.messageTask = nil
	}
}

func (s *TokenStore) secretLocked(id string) (string, bool) {
	for _, t := range s.tokens {
		if t.ID == id {
			return t.Token, true
		}
	}
	return "", false
}

func (s *TokenStore) clearMessageLocked() {
	if s.messageTask != nil {
		s.messageTask.Stop()
		s.messageTask = nil
	}
	s.message = nil
}

func (s *TokenStore) setMessageLocked(kind MessageKind, text string) {
	s.clearMessageLocked()
	msg := &Message{Kind: kind, Text: text}
	s.message = msg
	s.messageTask = s.scheduler.AfterFunc(MessageTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.message == msg {
			s.message = nil
			s.messageTask = nil
		}
	})
}
