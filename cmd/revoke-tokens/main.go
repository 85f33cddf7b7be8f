package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/splitrail/splitrail-web/internal/config"
	"github.com/splitrail/splitrail-web/internal/database"
)

// revoke-tokens removes every CLI token and refresh token of a user,
// signing them out everywhere. Used when a token leaks.
func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: revoke-tokens <github-username>")
		os.Exit(1)
	}

	username := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	apiTokens, refreshTokens, err := revoke(ctx, db, username)
	if err != nil {
		log.Fatalf("Failed to revoke tokens: %v", err)
	}

	fmt.Printf("Revoked %d API tokens and %d sessions for %s\n", apiTokens, refreshTokens, username)
}

func revoke(ctx context.Context, db *database.DB, username string) (int64, int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&userID); err != nil {
		return 0, 0, fmt.Errorf("no user found with username %s: %w", username, err)
	}

	apiResult, err := tx.Exec(ctx, `DELETE FROM api_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, 0, err
	}

	refreshResult, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return apiResult.RowsAffected(), refreshResult.RowsAffected(), nil
}
