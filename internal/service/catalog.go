package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/repository"
)

// ListBooksParams selects one page of the catalog.
type ListBooksParams struct {
	Search *string
	Genre  *string
	SortBy string
	Cursor string
	Limit  int
}

// BookPage is one page of enriched catalog entries.
type BookPage struct {
	Page           []domain.BookSummary
	ContinueCursor string
	IsDone         bool
}

// ListBooks returns a page of books, each enriched with its rating summary and creator name.
// Enrichment runs concurrently per book; the page keeps the listing order.
func (s *Service) ListBooks(ctx context.Context, params ListBooksParams) (BookPage, error) {
	result, err := s.books.List(ctx, repository.BookListFilters{
		Search: params.Search,
		Genre:  params.Genre,
		SortBy: params.SortBy,
		Limit:  params.Limit,
		Cursor: params.Cursor,
	})
	if err != nil {
		return BookPage{}, err
	}

	summaries := make([]domain.BookSummary, len(result.Items))
	names := newNameCache(s.users)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)
	for i, book := range result.Items {
		i, book := i, book
		g.Go(func() error {
			reviews, err := s.reviews.ListByBook(gctx, book.ID)
			if err != nil {
				return fmt.Errorf("reviews of book %s: %w", book.ID, err)
			}
			creator, err := names.lookup(gctx, book.OwnerID, domain.UnknownCreator)
			if err != nil {
				return err
			}
			rating := domain.Summarize(reviews)
			summaries[i] = domain.BookSummary{
				Book:        book,
				AvgRating:   rating.Average,
				ReviewCount: rating.Count,
				CreatorName: creator,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BookPage{}, err
	}

	return BookPage{
		Page:           summaries,
		ContinueCursor: result.NextCursor,
		IsDone:         result.Done,
	}, nil
}

// GetBook returns the detail view of a book. A missing book is reported through found=false
// rather than an error.
func (s *Service) GetBook(ctx context.Context, id string) (domain.BookDetail, bool, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.BookDetail{}, false, nil
		}
		return domain.BookDetail{}, false, err
	}

	reviews, err := s.reviews.ListByBook(ctx, book.ID)
	if err != nil {
		return domain.BookDetail{}, false, fmt.Errorf("reviews of book %s: %w", book.ID, err)
	}

	names := newNameCache(s.users)
	withAuthors := make([]domain.ReviewWithAuthor, len(reviews))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)
	var creator string
	g.Go(func() error {
		name, err := names.lookup(gctx, book.OwnerID, domain.UnknownCreator)
		creator = name
		return err
	})
	for i, review := range reviews {
		i, review := i, review
		g.Go(func() error {
			name, err := names.lookup(gctx, review.UserID, domain.AnonymousAuthor)
			if err != nil {
				return err
			}
			withAuthors[i] = domain.ReviewWithAuthor{Review: review, UserName: name}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.BookDetail{}, false, err
	}

	rating := domain.Summarize(reviews)
	return domain.BookDetail{
		Book:               book,
		AvgRating:          rating.Average,
		ReviewCount:        rating.Count,
		CreatorName:        creator,
		Reviews:            withAuthors,
		RatingDistribution: rating.Distribution,
	}, true, nil
}

// nameCache resolves user display names at most once per request.
type nameCache struct {
	users UserStore
	mu    sync.Mutex
	known map[string]*domain.User
}

func newNameCache(users UserStore) *nameCache {
	return &nameCache{users: users, known: make(map[string]*domain.User)}
}

// lookup returns the display name of userID, or fallback when the user is missing or unnamed.
func (c *nameCache) lookup(ctx context.Context, userID, fallback string) (string, error) {
	c.mu.Lock()
	cached, ok := c.known[userID]
	c.mu.Unlock()
	if ok {
		if cached == nil {
			return fallback, nil
		}
		return cached.DisplayName(fallback), nil
	}

	user, err := c.users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("user %s: %w", userID, err)
	}

	var entry *domain.User
	if err == nil {
		entry = &user
	}
	c.mu.Lock()
	c.known[userID] = entry
	c.mu.Unlock()

	if entry == nil {
		return fallback, nil
	}
	return entry.DisplayName(fallback), nil
}
