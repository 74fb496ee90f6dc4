package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
)

// UserStore keeps identities in auth_users. Creating a user also creates its
// profile row in the same transaction.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = "id, email, password_hash, confirmation_token, confirmed_at, created_at"

func scanUser(row *sql.Row) (*auth.StoredUser, error) {
	var u auth.StoredUser
	var token sql.NullString
	var confirmedAt sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &token, &confirmedAt, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ConfirmationToken = token.String
	if confirmedAt.Valid {
		t := confirmedAt.Time
		u.ConfirmedAt = &t
	}
	return &u, nil
}

func (s *UserStore) CreateUser(ctx context.Context, nu auth.NewUser) (*auth.StoredUser, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var confirmedAt sql.NullTime
	if nu.Confirmed {
		confirmedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	row := tx.QueryRowContext(ctx,
		`INSERT INTO auth_users (id, email, password_hash, confirmation_token, confirmed_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+userColumns,
		nu.ID, nu.Email, nu.PasswordHash, nu.ConfirmationToken, confirmedAt,
	)
	u, err := scanUser(row)
	if err != nil {
		if sqlState(err) == codeUniqueViolation {
			return nil, auth.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	username, _, _ := strings.Cut(nu.Email, "@")
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO profiles (id, username) VALUES ($1, $2)", u.ID, username,
	); err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.StoredUser, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM auth_users WHERE email = $1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *UserStore) ConfirmByToken(ctx context.Context, token string) (*auth.StoredUser, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`UPDATE auth_users SET confirmed_at = COALESCE(confirmed_at, NOW()), confirmation_token = NULL
		 WHERE confirmation_token = $1 RETURNING `+userColumns, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}
	return u, nil
}
