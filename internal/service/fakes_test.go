package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu      sync.Mutex
	books   []domain.Book
	reviews []domain.Review
	users   map[string]domain.User

	failUserLookup error
	revoked        map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]domain.User), revoked: make(map[string]time.Duration)}
}

type memBooks struct{ *memStore }
type memReviews struct{ *memStore }
type memUsers struct{ *memStore }

func (m memBooks) Insert(_ context.Context, params repository.BookCreateParams) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	book := domain.Book{
		ID:          uuid.NewString(),
		Title:       params.Title,
		Author:      params.Author,
		Description: params.Description,
		Genre:       params.Genre,
		Year:        params.Year,
		OwnerID:     params.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.books = append(m.books, book)
	return book, nil
}

func (m memBooks) GetByID(_ context.Context, id string) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Book{}, domain.ErrNotFound
}

func (m memBooks) Patch(_ context.Context, id string, fields domain.BookFields) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.books {
		if b.ID == id {
			b.Title, b.Author, b.Description, b.Genre, b.Year = fields.Title, fields.Author, fields.Description, fields.Genre, fields.Year
			b.UpdatedAt = time.Now().UTC()
			m.books[i] = b
			return b, nil
		}
	}
	return domain.Book{}, domain.ErrNotFound
}

func (m memBooks) DeleteCascade(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, b := range m.books {
		if b.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return 0, domain.ErrNotFound
	}
	var removed int64
	kept := m.reviews[:0]
	for _, r := range m.reviews {
		if r.BookID == id {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.reviews = kept
	m.books = append(m.books[:idx], m.books[idx+1:]...)
	return removed, nil
}

func (m memBooks) ListByOwner(_ context.Context, ownerID string) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Book, 0)
	for _, b := range m.books {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m memBooks) List(_ context.Context, filters repository.BookListFilters) (repository.BookListResult, error) {
	if filters.Cursor == "bogus" {
		return repository.BookListResult{}, domain.ErrInvalidCursor
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Book, 0)
	for _, b := range m.books {
		if filters.Search != nil && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(*filters.Search)) {
			continue
		}
		if filters.Genre != nil && b.Genre != *filters.Genre {
			continue
		}
		out = append(out, b)
	}
	return repository.BookListResult{Items: out, Done: true}, nil
}

func (m memReviews) Insert(_ context.Context, params repository.ReviewCreateParams) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for _, b := range m.books {
		if b.ID == params.BookID {
			found = true
		}
	}
	if !found {
		return domain.Review{}, domain.ErrNotFound
	}
	for _, r := range m.reviews {
		if r.BookID == params.BookID && r.UserID == params.UserID {
			return domain.Review{}, domain.ErrDuplicateReview
		}
	}
	now := time.Now().UTC()
	review := domain.Review{
		ID:        uuid.NewString(),
		BookID:    params.BookID,
		UserID:    params.UserID,
		Rating:    params.Rating,
		Text:      params.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.reviews = append(m.reviews, review)
	return review, nil
}

func (m memReviews) GetByID(_ context.Context, id string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Review{}, domain.ErrNotFound
}

func (m memReviews) Patch(_ context.Context, id string, rating int, text string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.reviews {
		if r.ID == id {
			r.Rating, r.Text = rating, text
			m.reviews[i] = r
			return r, nil
		}
	}
	return domain.Review{}, domain.ErrNotFound
}

func (m memReviews) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.reviews {
		if r.ID == id {
			m.reviews = append(m.reviews[:i], m.reviews[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m memReviews) ListByBook(_ context.Context, bookID string) ([]domain.Review, error) {
	return m.filter(func(r domain.Review) bool { return r.BookID == bookID }), nil
}

func (m memReviews) ListByUser(_ context.Context, userID string) ([]domain.Review, error) {
	return m.filter(func(r domain.Review) bool { return r.UserID == userID }), nil
}

func (m memReviews) filter(keep func(domain.Review) bool) []domain.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Review, 0)
	for _, r := range m.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m memUsers) Insert(_ context.Context, params repository.UserCreateParams) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, params.Email) {
			return domain.User{}, domain.ErrConflict
		}
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m memUsers) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUserLookup != nil {
		return domain.User{}, m.failUserLookup
	}
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// Revoke satisfies TokenRevoker.
func (m *memStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if jti == "" {
		return errors.New("empty jti")
	}
	m.revoked[jti] = ttl
	return nil
}

func (m *memStore) addUser(name string) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := domain.User{ID: uuid.NewString(), Email: name + "@example.com", CreatedAt: time.Now().UTC()}
	if name != "" {
		n := name
		user.Name = &n
	}
	m.users[user.ID] = user
	return user
}
