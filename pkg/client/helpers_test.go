package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// manualScheduler fires tasks only when the test advances its clock.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTask{s: s, at: s.now + d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTask
	for _, t := range s.tasks {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeTokenAPI struct {
	mu        sync.Mutex
	session   bool
	tokens    []Token
	listErr   error
	createErr error
	deleteErr error
	calls     map[string]int
	nextID    int

	// gate, when set, blocks the next remote call until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeTokenAPI(tokens ...Token) *fakeTokenAPI {
	return &fakeTokenAPI{session: true, tokens: tokens, calls: make(map[string]int)}
}

func (f *fakeTokenAPI) HasSession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeTokenAPI) wait(op string) {
	f.mu.Lock()
	f.calls[op]++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}
}

func (f *fakeTokenAPI) ListTokens(ctx context.Context) ([]Token, error) {
	f.wait("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Token(nil), f.tokens...), nil
}

func (f *fakeTokenAPI) CreateToken(ctx context.Context, name string) (*Token, error) {
	f.wait("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	t := Token{
		ID:        fmt.Sprintf("new-%d", f.nextID),
		Token:     fmt.Sprintf("st_created%016d", f.nextID),
		Name:      name,
		CreatedAt: time.Now(),
	}
	f.tokens = append([]Token{t}, f.tokens...)
	return &t, nil
}

func (f *fakeTokenAPI) DeleteToken(ctx context.Context, id string) error {
	f.wait("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeTokenAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

type fakeClipboard struct {
	mu      sync.Mutex
	written []string
	err     error
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.written = append(c.written, text)
	return nil
}

var errTransport = errors.New("dial tcp: connection refused")

func sampleTokens(n int) []Token {
	tokens := make([]Token, n)
	for i := range tokens {
		tokens[i] = Token{
			ID:        fmt.Sprintf("tok-%d", i),
			Token:     fmt.Sprintf("st_sample%018dabcd", i),
			Name:      fmt.Sprintf("CLI Token %d", i+1),
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return tokens
}
