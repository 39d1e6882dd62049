package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/repository"
)

func trimFields(fields domain.BookFields) domain.BookFields {
	fields.Title = strings.TrimSpace(fields.Title)
	fields.Author = strings.TrimSpace(fields.Author)
	fields.Description = strings.TrimSpace(fields.Description)
	fields.Genre = strings.TrimSpace(fields.Genre)
	return fields
}

// AddBook creates a book owned by actor and returns its id.
func (s *Service) AddBook(ctx context.Context, actor domain.Actor, fields domain.BookFields) (string, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	fields = trimFields(fields)
	if err := fields.Validate(); err != nil {
		return "", err
	}
	book, err := s.books.Insert(ctx, repository.BookCreateParams{BookFields: fields, OwnerID: actor.UserID})
	if err != nil {
		return "", fmt.Errorf("insert book: %w", err)
	}
	return book.ID, nil
}

// UpdateBook replaces the mutable fields of a book owned by actor.
func (s *Service) UpdateBook(ctx context.Context, actor domain.Actor, id string, fields domain.BookFields) error {
	if _, err := s.ownedBook(ctx, actor, id); err != nil {
		return err
	}
	fields = trimFields(fields)
	if err := fields.Validate(); err != nil {
		return err
	}
	if _, err := s.books.Patch(ctx, id, fields); err != nil {
		return err
	}
	return nil
}

// DeleteBook removes a book owned by actor together with all of its reviews.
func (s *Service) DeleteBook(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := s.ownedBook(ctx, actor, id); err != nil {
		return err
	}
	removed, err := s.books.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Printf("service: book %s deleted with %d review(s)", id, removed)
	return nil
}

func (s *Service) ownedBook(ctx context.Context, actor domain.Actor, id string) (domain.Book, error) {
	if err := requireActor(actor); err != nil {
		return domain.Book{}, err
	}
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return domain.Book{}, err
	}
	if book.OwnerID != actor.UserID {
		return domain.Book{}, domain.ErrForbidden
	}
	return book, nil
}

// ListUserBooks returns the books owned by actor, or an empty list for anonymous callers.
func (s *Service) ListUserBooks(ctx context.Context, actor domain.Actor) ([]domain.Book, error) {
	if !actor.Authenticated() {
		return []domain.Book{}, nil
	}
	return s.books.ListByOwner(ctx, actor.UserID)
}

// AddReview records actor's review of a book and returns its id.
func (s *Service) AddReview(ctx context.Context, actor domain.Actor, bookID string, rating int, text string) (string, error) {
	if err := requireActor(actor); err != nil {
		return "", err
	}
	if err := domain.ValidateRating(rating); err != nil {
		return "", err
	}
	review, err := s.reviews.Insert(ctx, repository.ReviewCreateParams{
		BookID: bookID,
		UserID: actor.UserID,
		Rating: rating,
		Text:   text,
	})
	if err != nil {
		return "", err
	}
	return review.ID, nil
}

// UpdateReview replaces the rating and text of a review written by actor.
func (s *Service) UpdateReview(ctx context.Context, actor domain.Actor, id string, rating int, text string) error {
	if _, err := s.authoredReview(ctx, actor, id); err != nil {
		return err
	}
	if err := domain.ValidateRating(rating); err != nil {
		return err
	}
	if _, err := s.reviews.Patch(ctx, id, rating, text); err != nil {
		return err
	}
	return nil
}

// DeleteReview removes a review written by actor.
func (s *Service) DeleteReview(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := s.authoredReview(ctx, actor, id); err != nil {
		return err
	}
	return s.reviews.Delete(ctx, id)
}

func (s *Service) authoredReview(ctx context.Context, actor domain.Actor, id string) (domain.Review, error) {
	if err := requireActor(actor); err != nil {
		return domain.Review{}, err
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	if review.UserID != actor.UserID {
		return domain.Review{}, domain.ErrForbidden
	}
	return review, nil
}

// ListUserReviews returns actor's reviews with the title of each reviewed book, or an empty list
// for anonymous callers.
func (s *Service) ListUserReviews(ctx context.Context, actor domain.Actor) ([]domain.ReviewWithBook, error) {
	if !actor.Authenticated() {
		return []domain.ReviewWithBook{}, nil
	}
	reviews, err := s.reviews.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string)
	out := make([]domain.ReviewWithBook, 0, len(reviews))
	for _, review := range reviews {
		title, ok := titles[review.BookID]
		if !ok {
			book, err := s.books.GetByID(ctx, review.BookID)
			switch {
			case err == nil:
				title = book.Title
			case errors.Is(err, domain.ErrNotFound):
				title = domain.UnknownBook
			default:
				return nil, fmt.Errorf("book %s: %w", review.BookID, err)
			}
			titles[review.BookID] = title
		}
		out = append(out, domain.ReviewWithBook{Review: review, BookTitle: title})
	}
	return out, nil
}
