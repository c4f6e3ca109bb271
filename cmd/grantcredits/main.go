// Command grantcredits tops up a user's credit balance. It is an operator
// tool; the API itself never adds credits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"clicknail/internal/infra"
	"clicknail/internal/sqlinline"
)

func main() {
	var (
		idFlag     string
		emailFlag  string
		amountFlag int
	)
	flag.StringVar(&idFlag, "id", "", "user ID to top up (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to top up")
	flag.IntVar(&amountFlag, "amount", 5, "credits to add")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if amountFlag <= 0 {
		exitWithError(fmt.Errorf("-amount must be positive, got %d", amountFlag))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "grantcredits").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	if userID == "" {
		lookupCtx, cancelLookup := context.WithTimeout(context.Background(), 5*time.Second)
		row := runner.QueryRow(lookupCtx, sqlinline.QSelectUserByEmail, email)
		var u struct {
			ID, Name, Email, PasswordHash, GoogleSub, AvatarURL string
			Credits                                             int
			CreatedAt, UpdatedAt                                time.Time
		}
		err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleSub, &u.AvatarURL, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
		cancelLookup()
		if err != nil {
			exitWithError(fmt.Errorf("failed to load user by email: %w", err))
		}
		userID = u.ID
	}

	updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelUpdate()
	row := runner.QueryRow(updateCtx, sqlinline.QGrantCredits, userID, amountFlag)

	var (
		updatedID    string
		updatedEmail string
		balance      int
	)
	if err := row.Scan(&updatedID, &updatedEmail, &balance); err != nil {
		exitWithError(fmt.Errorf("failed to grant credits: %w", err))
	}

	fmt.Printf("User %s (%s) credited +%d, balance now %d\n", updatedID, updatedEmail, amountFlag, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
