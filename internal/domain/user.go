package domain

import (
	"strings"
	"time"
)

// Display-name fallbacks used when a referenced record is missing or unnamed.
const (
	UnknownCreator  = "Unknown"
	AnonymousAuthor = "Anonymous"
	UnknownBook     = "Unknown Book"
)

// User is the identity record consumed by the catalog. Name is optional.
type User struct {
	ID           string
	Name         *string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName returns the user's name, or fallback when none is set.
func (u User) DisplayName(fallback string) string {
	if u.Name == nil || strings.TrimSpace(*u.Name) == "" {
		return fallback
	}
	return *u.Name
}

// Actor is the identity a request acts as. The zero value is an anonymous caller.
type Actor struct {
	UserID string
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Actor{}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// Profile is the caller's account view.
type Profile struct {
	User    User
	Books   []Book
	Reviews []ReviewWithBook
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
