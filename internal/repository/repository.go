package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/book-reviews/internal/store"
)

// Postgres error codes the repositories translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository aggregates all collection-specific repositories.
type Repository struct {
	Books   *BooksRepository
	Reviews *ReviewsRepository
	Users   *UsersRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Books:   &BooksRepository{pool: pool},
		Reviews: &ReviewsRepository{pool: pool},
		Users:   &UsersRepository{pool: pool},
	}
}

// validID reports whether id can name a stored record. Malformed ids never resolve.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
