package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/book-reviews/internal/domain"
)

// ReviewsRepository provides helpers for book reviews.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `id, book_id, user_id, rating, body, created_at, updated_at`

// ReviewCreateParams captures the payload required to create a review.
type ReviewCreateParams struct {
	BookID string
	UserID string
	Rating int
	Text   string
}

// Insert stores a review. The (book, user) uniqueness is enforced by the database in the same
// statement, so concurrent attempts cannot both succeed.
func (r *ReviewsRepository) Insert(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	if !validID(params.BookID) {
		return domain.Review{}, domain.ErrNotFound
	}
	query := fmt.Sprintf(`
        INSERT INTO reviews (book_id, user_id, rating, body)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, params.BookID, params.UserID, params.Rating, params.Text))
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return domain.Review{}, domain.ErrDuplicateReview
		case pgForeignKeyViolation:
			return domain.Review{}, fmt.Errorf("book %s: %w", params.BookID, domain.ErrNotFound)
		}
		return domain.Review{}, err
	}
	return review, nil
}

// GetByID retrieves a review by its identifier.
func (r *ReviewsRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	if !validID(id) {
		return domain.Review{}, domain.ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Patch replaces the rating and text of a review.
func (r *ReviewsRepository) Patch(ctx context.Context, id string, rating int, text string) (domain.Review, error) {
	if !validID(id) {
		return domain.Review{}, domain.ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE reviews
        SET rating = $2, body = $3, updated_at = clock_timestamp()
        WHERE id = $1
        RETURNING %s
    `, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, id, rating, text))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, domain.ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Delete removes a review.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByBook returns every review of a book in insertion order.
func (r *ReviewsRepository) ListByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	if !validID(bookID) {
		return []domain.Review{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE book_id = $1 ORDER BY created_at, id`, reviewColumns)
	return r.list(ctx, query, bookID)
}

// ListByUser returns every review written by userID in insertion order.
func (r *ReviewsRepository) ListByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	if !validID(userID) {
		return []domain.Review{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE user_id = $1 ORDER BY created_at, id`, reviewColumns)
	return r.list(ctx, query, userID)
}

func (r *ReviewsRepository) list(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	var rating int16
	err := row.Scan(
		&review.ID,
		&review.BookID,
		&review.UserID,
		&rating,
		&review.Text,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	review.Rating = int(rating)
	review.CreatedAt = review.CreatedAt.UTC()
	review.UpdatedAt = review.UpdatedAt.UTC()
	return review, nil
}
