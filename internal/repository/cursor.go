package repository

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/Clark-Hu/book-reviews/internal/domain"
)

// Ordering modes a cursor can continue. A cursor is only valid for the mode that produced it.
const (
	orderInsertion = "insertion"
	orderYear      = "year"
	orderRelevance = "relevance"
)

// BookCursor allows stable pagination over every listing order.
type BookCursor struct {
	Order     string    `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	Year      int       `json:"year,omitempty"`
	ID        string    `json:"id,omitempty"`
	Offset    int       `json:"offset,omitempty"`
	Filter    string    `json:"filter,omitempty"`
}

// filterKey fingerprints the search text and genre a page was produced for, so a cursor cannot
// continue a listing with different filters.
func filterKey(search, genre string) string {
	if search == "" && genre == "" {
		return ""
	}
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.Join(strings.Fields(search), " "))))
	h.Write([]byte{0})
	h.Write([]byte(genre))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeCursor renders c as an opaque URL-safe token.
func EncodeCursor(c BookCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token. An empty token yields a nil cursor. Any malformed token
// fails with domain.ErrInvalidCursor.
func DecodeCursor(token string) (*BookCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	var cursor BookCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	switch cursor.Order {
	case orderInsertion:
		if cursor.ID == "" || cursor.CreatedAt.IsZero() {
			return nil, fmt.Errorf("%w: incomplete position", domain.ErrInvalidCursor)
		}
	case orderYear:
		if cursor.ID == "" {
			return nil, fmt.Errorf("%w: incomplete position", domain.ErrInvalidCursor)
		}
	case orderRelevance:
		if cursor.Offset < 0 {
			return nil, fmt.Errorf("%w: negative offset", domain.ErrInvalidCursor)
		}
	default:
		return nil, fmt.Errorf("%w: unknown order %q", domain.ErrInvalidCursor, cursor.Order)
	}
	if cursor.ID != "" && !validID(cursor.ID) {
		return nil, fmt.Errorf("%w: bad id", domain.ErrInvalidCursor)
	}
	return &cursor, nil
}
