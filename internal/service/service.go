package service

import (
	"context"
	"log"
	"time"

	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/repository"
)

// BookStore is the book persistence surface the service depends on.
type BookStore interface {
	Insert(ctx context.Context, params repository.BookCreateParams) (domain.Book, error)
	GetByID(ctx context.Context, id string) (domain.Book, error)
	Patch(ctx context.Context, id string, fields domain.BookFields) (domain.Book, error)
	DeleteCascade(ctx context.Context, id string) (int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Book, error)
	List(ctx context.Context, filters repository.BookListFilters) (repository.BookListResult, error)
}

// ReviewStore is the review persistence surface the service depends on.
type ReviewStore interface {
	Insert(ctx context.Context, params repository.ReviewCreateParams) (domain.Review, error)
	GetByID(ctx context.Context, id string) (domain.Review, error)
	Patch(ctx context.Context, id string, rating int, text string) (domain.Review, error)
	Delete(ctx context.Context, id string) error
	ListByBook(ctx context.Context, bookID string) ([]domain.Review, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Review, error)
}

// UserStore is the account persistence surface the service depends on.
type UserStore interface {
	Insert(ctx context.Context, params repository.UserCreateParams) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// TokenIssuer mints bearer tokens for signed-in users.
type TokenIssuer interface {
	Issue(userID string) (token string, jti string, expiresAt time.Time, err error)
}

// TokenRevoker records tokens that must no longer be accepted.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Deps wires the collaborators of a Service.
type Deps struct {
	Books   BookStore
	Reviews ReviewStore
	Users   UserStore
	Tokens  TokenIssuer
	Revoker TokenRevoker
	Logger  *log.Logger
	// EnrichConcurrency bounds the per-book lookups issued in parallel for one listing.
	EnrichConcurrency int
}

// Service implements catalog queries, ownership-gated mutations and accounts.
type Service struct {
	books             BookStore
	reviews           ReviewStore
	users             UserStore
	tokens            TokenIssuer
	revoker           TokenRevoker
	logger            *log.Logger
	enrichConcurrency int
}

const defaultEnrichConcurrency = 8

// New builds a Service from deps.
func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	concurrency := deps.EnrichConcurrency
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	return &Service{
		books:             deps.Books,
		reviews:           deps.Reviews,
		users:             deps.Users,
		tokens:            deps.Tokens,
		revoker:           deps.Revoker,
		logger:            logger,
		enrichConcurrency: concurrency,
	}
}

// NewFromRepository wires a Service to the Postgres repositories.
func NewFromRepository(repo *repository.Repository, deps Deps) *Service {
	deps.Books = repo.Books
	deps.Reviews = repo.Reviews
	deps.Users = repo.Users
	return New(deps)
}

func requireActor(actor domain.Actor) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}
