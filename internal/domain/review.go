package domain

import "time"

// Review is a single user's rating and comment on a book. At most one exists per (book, user).
type Review struct {
	ID        string
	BookID    string
	UserID    string
	Rating    int
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewWithAuthor carries the reviewer's display name alongside the review.
type ReviewWithAuthor struct {
	Review
	UserName string
}

// ReviewWithBook carries the reviewed book's title alongside the review.
type ReviewWithBook struct {
	Review
	BookTitle string
}
