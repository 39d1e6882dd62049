package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Clark-Hu/book-reviews/internal/auth"
	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/repository"
)

// Session is a freshly issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterParams captures a sign-up request.
type RegisterParams struct {
	Name     *string
	Email    string
	Password string
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, params RegisterParams) (domain.User, Session, error) {
	email := strings.TrimSpace(params.Email)
	if email == "" {
		return domain.User{}, Session{}, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return domain.User{}, Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return domain.User{}, Session{}, fmt.Errorf("hash password: %w", err)
	}

	name := params.Name
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	user, err := s.users.Insert(ctx, repository.UserCreateParams{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		return domain.User{}, Session{}, err
	}
	session, err := s.issue(user.ID)
	if err != nil {
		return domain.User{}, Session{}, err
	}
	s.logger.Printf("service: registered user %s", user.ID)
	return user, session, nil
}

// Login exchanges credentials for a session. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
		}
		return Session{}, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}
	return s.issue(user.ID)
}

// Logout revokes the token identified by jti for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, time.Until(expiresAt)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Profile returns actor's account together with the books and reviews they authored.
func (s *Service) Profile(ctx context.Context, actor domain.Actor) (domain.Profile, error) {
	if err := requireActor(actor); err != nil {
		return domain.Profile{}, err
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Profile{}, domain.ErrUnauthenticated
		}
		return domain.Profile{}, err
	}
	books, err := s.ListUserBooks(ctx, actor)
	if err != nil {
		return domain.Profile{}, err
	}
	reviews, err := s.ListUserReviews(ctx, actor)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{User: user, Books: books, Reviews: reviews}, nil
}

func (s *Service) issue(userID string) (Session, error) {
	token, _, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt}, nil
}
