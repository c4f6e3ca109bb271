package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"clicknail/internal/domain"
	"clicknail/internal/infra"
	"clicknail/internal/sqlinline"
)

// UserRepo persists user accounts and the credit ledger in PostgreSQL.
type UserRepo struct {
	sql infra.SQLExecutor
}

func NewUserRepo(sql infra.SQLExecutor) *UserRepo {
	return &UserRepo{sql: sql}
}

// Create inserts a password-based account with the default credit grant.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUser, name, email, passwordHash, domain.DefaultCredits)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
}

// UpsertGoogle creates an account on first Google sign-in, or links the Google
// subject (and backfills the avatar) onto an existing account with the same
// email address.
func (r *UserRepo) UpsertGoogle(ctx context.Context, name, email, googleSub, avatarURL string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertGoogleUser, name, email, googleSub, avatarURL, domain.DefaultCredits)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert google user: %w", err)
	}
	return user, nil
}

// SpendCredit atomically deducts one credit, refusing to go below zero. It
// returns the remaining balance, or ErrInsufficientCredits when the guarded
// update matched no row.
func (r *UserRepo) SpendCredit(ctx context.Context, userID string) (int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSpendCredit, userID)
	var remaining int
	if err := row.Scan(&remaining); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("spend credit: %w", err)
	}
	return remaining, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleSub, &u.AvatarURL, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
