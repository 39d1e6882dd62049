package httpserver

import (
	"net/http"
	"time"

	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/service"
)

type registerRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *userResponse `json:"user,omitempty"`
}

type profileResponse struct {
	User    userResponse         `json:"user"`
	Books   []bookResponse       `json:"books"`
	Reviews []reviewBookResponse `json:"reviews"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, session, err := s.svc.Register(r.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondServiceError(w, err, "register")
		return
	}
	u := toUserResponse(user)
	s.respondJSON(w, http.StatusCreated, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt, User: &u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	session, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, err, "login")
		return
	}
	s.respondJSON(w, http.StatusOK, sessionResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if claims == nil {
		s.respondServiceError(w, domain.ErrUnauthenticated, "logout")
		return
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.svc.Logout(r.Context(), claims.ID, expiresAt); err != nil {
		s.respondServiceError(w, err, "logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profile(r.Context(), actorFrom(r))
	if err != nil {
		s.respondServiceError(w, err, "load profile")
		return
	}
	s.respondJSON(w, http.StatusOK, profileResponse{
		User:    toUserResponse(profile.User),
		Books:   toBookResponses(profile.Books),
		Reviews: toReviewBookResponses(profile.Reviews),
	})
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
