// Command sessionsweep deletes expired session rows. The API server runs the
// same sweep on a timer; this is the one-shot variant for cron or migrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"clicknail/internal/infra"
	"clicknail/internal/session"
)

func main() {
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}
	secret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if secret == "" {
		exitWithError(errors.New("SESSION_SECRET is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "sessionsweep").Logger()
	store := session.NewPGStore(infra.NewSQLRunner(pool, logger), secret, true)

	if err := store.PurgeExpired(ctx); err != nil {
		exitWithError(fmt.Errorf("failed to purge sessions: %w", err))
	}
	fmt.Println("Expired sessions purged")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
