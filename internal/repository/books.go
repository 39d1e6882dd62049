package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/store"
)

// BooksRepository provides persistence helpers for book entities.
type BooksRepository struct {
	pool *pgxpool.Pool
}

const bookColumns = `
    id,
    title,
    author,
    description,
    genre,
    year,
    owner_id,
    created_at,
    updated_at
`

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SortByYear orders plain and genre listings by publication year, newest first.
const SortByYear = "year"

// BookCreateParams bundles the fields required to create a book.
type BookCreateParams struct {
	domain.BookFields
	OwnerID string
}

// BookListFilters encapsulates search, filter and pagination options.
type BookListFilters struct {
	Search *string
	Genre  *string
	SortBy string
	Limit  int
	Cursor string
}

// BookListResult returns the paginated payload.
type BookListResult struct {
	Items      []domain.Book
	NextCursor string
	Done       bool
}

// Insert stores a new book and returns the stored entity.
func (r *BooksRepository) Insert(ctx context.Context, params BookCreateParams) (domain.Book, error) {
	query := fmt.Sprintf(`
        INSERT INTO books (title, author, description, genre, year, owner_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING %s
    `, bookColumns)

	row := r.pool.QueryRow(ctx, query, params.Title, params.Author, params.Description, params.Genre, params.Year, params.OwnerID)
	return scanBook(row)
}

// GetByID fetches a book by its identifier.
func (r *BooksRepository) GetByID(ctx context.Context, id string) (domain.Book, error) {
	if !validID(id) {
		return domain.Book{}, domain.ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, bookColumns)
	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, err
	}
	return book, nil
}

// Patch replaces the mutable fields of a book. The owner is never changed.
func (r *BooksRepository) Patch(ctx context.Context, id string, fields domain.BookFields) (domain.Book, error) {
	if !validID(id) {
		return domain.Book{}, domain.ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE books
        SET title = $2,
            author = $3,
            description = $4,
            genre = $5,
            year = $6,
            updated_at = clock_timestamp()
        WHERE id = $1
        RETURNING %s
    `, bookColumns)

	row := r.pool.QueryRow(ctx, query, id, fields.Title, fields.Author, fields.Description, fields.Genre, fields.Year)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, err
	}
	return book, nil
}

// DeleteCascade removes every review of the book and then the book itself in one transaction.
// It returns the number of reviews removed.
func (r *BooksRepository) DeleteCascade(ctx context.Context, id string) (int64, error) {
	if !validID(id) {
		return 0, domain.ErrNotFound
	}
	var removed int64
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM reviews WHERE book_id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		removed = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ListByOwner returns every book created by ownerID in insertion order.
func (r *BooksRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Book, error) {
	if !validID(ownerID) {
		return []domain.Book{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM books WHERE owner_id = $1 ORDER BY created_at, id`, bookColumns)
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

// List returns one page of books matching the filters.
//
// With search text the page is ordered by title relevance, optionally narrowed to a genre.
// Otherwise books are listed in insertion order, or newest year first when SortBy is "year".
func (r *BooksRepository) List(ctx context.Context, filters BookListFilters) (BookListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultPageSize
	} else if filters.Limit > maxPageSize {
		filters.Limit = maxPageSize
	}

	search := ""
	if filters.Search != nil {
		search = strings.TrimSpace(*filters.Search)
	}
	genre := ""
	if filters.Genre != nil {
		genre = strings.TrimSpace(*filters.Genre)
	}

	order := orderInsertion
	switch {
	case search != "":
		order = orderRelevance
	case filters.SortBy == SortByYear:
		order = orderYear
	}

	cursor, err := DecodeCursor(filters.Cursor)
	if err != nil {
		return BookListResult{}, err
	}
	filter := filterKey(search, genre)
	if cursor != nil && (cursor.Order != order || cursor.Filter != filter) {
		return BookListResult{}, fmt.Errorf("%w: cursor belongs to a different listing", domain.ErrInvalidCursor)
	}

	var titleQuery string
	if order == orderRelevance {
		titleQuery = prefixTitleQuery(search)
		if titleQuery == "" {
			return BookListResult{Items: []domain.Book{}, Done: true}, nil
		}
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	var orderBy string
	offset := 0
	switch order {
	case orderRelevance:
		q := arg(titleQuery)
		where = append(where, fmt.Sprintf("to_tsvector('simple', title) @@ to_tsquery('simple', %s)", q))
		orderBy = fmt.Sprintf("ts_rank(to_tsvector('simple', title), to_tsquery('simple', %s)) DESC, id", q)
		if cursor != nil {
			offset = cursor.Offset
		}
	case orderYear:
		orderBy = "year DESC, id DESC"
		if cursor != nil {
			where = append(where, fmt.Sprintf("(year, id) < (%s, %s)", arg(cursor.Year), arg(cursor.ID)))
		}
	default:
		orderBy = "created_at, id"
		if cursor != nil {
			where = append(where, fmt.Sprintf("(created_at, id) > (%s, %s)", arg(cursor.CreatedAt), arg(cursor.ID)))
		}
	}
	if genre != "" {
		where = append(where, fmt.Sprintf("genre = %s", arg(genre)))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(bookColumns)
	queryBuilder.WriteString(" FROM books")

	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(orderBy)
	// One extra row tells us whether another page exists.
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit+1))
	if offset > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET %d", offset))
	}

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return BookListResult{}, err
	}
	items, err := collectBooks(rows)
	if err != nil {
		return BookListResult{}, err
	}

	if len(items) <= filters.Limit {
		return BookListResult{Items: items, Done: true}, nil
	}

	items = items[:filters.Limit]
	last := items[len(items)-1]
	next := BookCursor{Order: order, Filter: filter}
	switch order {
	case orderRelevance:
		next.Offset = offset + filters.Limit
	case orderYear:
		next.Year = last.Year
		next.ID = last.ID
	default:
		next.CreatedAt = last.CreatedAt
		next.ID = last.ID
	}
	token, err := EncodeCursor(next)
	if err != nil {
		return BookListResult{}, err
	}
	return BookListResult{Items: items, NextCursor: token}, nil
}

// prefixTitleQuery turns free search text into a tsquery that requires every word and lets the
// last one match as a prefix, so "dun" already finds "Dune". It returns "" when the text holds no
// searchable word.
func prefixTitleQuery(search string) string {
	words := strings.FieldsFunc(strings.ToLower(search), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	terms := make([]string, len(words))
	for i, word := range words {
		terms[i] = "'" + word + "'"
	}
	terms[len(terms)-1] += ":*"
	return strings.Join(terms, " & ")
}

func collectBooks(rows pgx.Rows) ([]domain.Book, error) {
	defer rows.Close()
	items := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var (
		book      domain.Book
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Description,
		&book.Genre,
		&book.Year,
		&book.OwnerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Book{}, err
	}

	book.CreatedAt = createdAt.UTC()
	book.UpdatedAt = updatedAt.UTC()
	return book, nil
}
