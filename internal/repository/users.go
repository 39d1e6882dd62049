package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/book-reviews/internal/domain"
)

// UsersRepository stores account records.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, name, email, password_hash, created_at`

// UserCreateParams captures the fields of a new account.
type UserCreateParams struct {
	Name         *string
	Email        string
	PasswordHash string
}

// Insert creates an account. A second account with the same email (case-insensitive) fails
// with domain.ErrConflict.
func (r *UsersRepository) Insert(ctx context.Context, params UserCreateParams) (domain.User, error) {
	query := fmt.Sprintf(`
        INSERT INTO users (name, email, password_hash)
        VALUES ($1,$2,$3)
        RETURNING %s
    `, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, params.Name, strings.TrimSpace(params.Email), params.PasswordHash))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.User{}, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID fetches an account by identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	if !validID(id) {
		return domain.User{}, domain.ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.get(ctx, query, id)
}

// GetByEmail fetches an account by email, ignoring case.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE lower(email) = lower($1)`, userColumns)
	return r.get(ctx, query, strings.TrimSpace(email))
}

func (r *UsersRepository) get(ctx context.Context, query string, arg string) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return domain.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
