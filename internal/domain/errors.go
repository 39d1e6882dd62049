package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. All are terminal for the request.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrDuplicateReview = errors.New("you have already reviewed this book")
	ErrInvalidCursor   = errors.New("invalid pagination cursor")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
