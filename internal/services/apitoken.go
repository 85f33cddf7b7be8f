package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/splitrail/splitrail-web/internal/database"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/pkg/apitoken"
	"github.com/splitrail/splitrail-web/pkg/format"
)

var (
	ErrAPITokenNotFound  = errors.New("api token not found")
	ErrAPITokenInvalid   = errors.New("invalid api token")
	ErrTokenLimitReached = fmt.Errorf("maximum of %d tokens reached, delete some tokens to create new ones", apitoken.MaxPerUser)
)

const (
	maxTokenNameLength = 100
	lastUsedFlushDelay = 5 * time.Second
)

// APITokenService manages the st_ tokens the CLI authenticates with.
// last_used_at writes are coalesced: Authenticate only records the use and
// a debounced flush (backed by RunFlusher under steady load) writes every
// pending token with its own timestamp in one statement.
type APITokenService struct {
	db *database.DB

	mu      sync.Mutex
	pending map[uuid.UUID]time.Time
	flusher *format.Debouncer[struct{}]
}

func NewAPITokenService(db *database.DB) *APITokenService {
	s := &APITokenService{
		db:      db,
		pending: make(map[uuid.UUID]time.Time),
	}
	s.flusher = format.Debounce(func(struct{}) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.FlushLastUsed(ctx); err != nil {
			slog.Warn("failed to flush api token usage", "error", err)
		}
	}, lastUsedFlushDelay)
	return s
}

const apiTokenColumns = `id, user_id, token, name, last_used_at, created_at`

func scanAPIToken(row interface{ Scan(dest ...any) error }, t *models.APIToken) error {
	return row.Scan(&t.ID, &t.UserID, &t.Token, &t.Name, &t.LastUsedAt, &t.CreatedAt)
}

// List returns the user's tokens, newest first.
func (s *APITokenService) List(ctx context.Context, userID uuid.UUID) ([]models.APIToken, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+apiTokenColumns+`
		FROM api_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []models.APIToken{}
	for rows.Next() {
		var t models.APIToken
		if err := scanAPIToken(rows, &t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Create mints a token for the user. The user row is locked for the duration
// of the transaction so concurrent creates cannot exceed the per-user cap.
func (s *APITokenService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.APIToken, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lockedID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&lockedID); err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM api_tokens WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}
	if count >= apitoken.MaxPerUser {
		return nil, ErrTokenLimitReached
	}

	secret, err := apitoken.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	var token models.APIToken
	err = scanAPIToken(tx.QueryRow(ctx, `
		INSERT INTO api_tokens (user_id, token, name)
		VALUES ($1, $2, $3)
		RETURNING `+apiTokenColumns,
		userID, secret, tokenName(name, count),
	), &token)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &token, nil
}

func tokenName(name string, existing int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("CLI Token %d", existing+1)
	}
	return format.Truncate(name, maxTokenNameLength)
}

func (s *APITokenService) Delete(ctx context.Context, userID, tokenID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM api_tokens WHERE id = $1 AND user_id = $2
	`, tokenID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAPITokenNotFound
	}

	s.mu.Lock()
	delete(s.pending, tokenID)
	s.mu.Unlock()
	return nil
}

// Authenticate resolves a bearer secret to its token. Malformed secrets are
// rejected without touching the database.
func (s *APITokenService) Authenticate(ctx context.Context, secret string) (*models.APIToken, error) {
	if !apitoken.IsValid(secret) {
		return nil, ErrAPITokenInvalid
	}

	var token models.APIToken
	err := scanAPIToken(s.db.Pool.QueryRow(ctx, `
		SELECT `+apiTokenColumns+`
		FROM api_tokens WHERE token = $1
	`, secret), &token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAPITokenInvalid
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending[token.ID] = time.Now()
	s.mu.Unlock()
	s.flusher.Call(struct{}{})

	return &token, nil
}

// FlushLastUsed writes every pending last-used timestamp. Failed writes are
// kept for the next flush.
func (s *APITokenService) FlushLastUsed(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[uuid.UUID]time.Time)
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	usedAt := make([]time.Time, len(ids))
	for i, id := range ids {
		usedAt[i] = batch[id]
	}

	_, err := s.db.Pool.Exec(ctx, `
		UPDATE api_tokens AS t SET last_used_at = v.at
		FROM unnest($1::uuid[], $2::timestamptz[]) AS v(id, at)
		WHERE t.id = v.id
	`, ids, usedAt)
	if err != nil {
		s.mu.Lock()
		for id, at := range batch {
			if cur, ok := s.pending[id]; !ok || at.After(cur) {
				s.pending[id] = at
			}
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to update last used: %w", err)
	}
	return nil
}

// RunFlusher flushes on a fixed interval until ctx is done. The debounced
// flush only fires after a quiet period, so steady traffic relies on this.
func (s *APITokenService) RunFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.FlushLastUsed(ctx); err != nil {
				slog.Warn("failed to flush api token usage", "error", err)
			}
		}
	}
}

// Close cancels the scheduled flush and writes what is pending.
func (s *APITokenService) Close(ctx context.Context) error {
	s.flusher.Stop()
	return s.FlushLastUsed(ctx)
}
