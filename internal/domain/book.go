package domain

import "time"

// Book is a catalog entry created and owned by a single user.
type Book struct {
	ID          string
	Title       string
	Author      string
	Description string
	Genre       string
	Year        int
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookFields lists the caller-supplied, mutable attributes of a book.
type BookFields struct {
	Title       string
	Author      string
	Description string
	Genre       string
	Year        int
}

// Validate reports ErrInvalidInput when a required text field is blank. Any year is accepted;
// callers decoding requests check that one was supplied.
func (f BookFields) Validate() error {
	switch {
	case isBlank(f.Title):
		return invalidInput("title is required")
	case isBlank(f.Author):
		return invalidInput("author is required")
	case isBlank(f.Description):
		return invalidInput("description is required")
	case isBlank(f.Genre):
		return invalidInput("genre is required")
	}
	return nil
}

// BookSummary is a book enriched for catalog listings.
type BookSummary struct {
	Book
	AvgRating   float64
	ReviewCount int
	CreatorName string
}

// BookDetail is a book enriched with its reviews and rating histogram.
type BookDetail struct {
	Book
	AvgRating          float64
	ReviewCount        int
	CreatorName        string
	Reviews            []ReviewWithAuthor
	RatingDistribution []RatingBucket
}
