package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/book-reviews/internal/domain"
)

type reviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text" validate:"max=10000"`
}

type reviewResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type reviewAuthorResponse struct {
	reviewResponse
	UserName string `json:"userName"`
}

type reviewBookResponse struct {
	reviewResponse
	BookTitle string `json:"bookTitle"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.Authenticated() {
		s.respondServiceError(w, domain.ErrUnauthenticated, "create review")
		return
	}

	var req reviewRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := s.svc.AddReview(r.Context(), actor, chi.URLParam(r, "bookID"), req.Rating, req.Text)
	if err != nil {
		s.respondServiceError(w, err, "create review")
		return
	}
	s.respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.Authenticated() {
		s.respondServiceError(w, domain.ErrUnauthenticated, "update review")
		return
	}

	var req reviewRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.svc.UpdateReview(r.Context(), actor, chi.URLParam(r, "reviewID"), req.Rating, req.Text); err != nil {
		s.respondServiceError(w, err, "update review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteReview(r.Context(), actorFrom(r), chi.URLParam(r, "reviewID")); err != nil {
		s.respondServiceError(w, err, "delete review")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.svc.ListUserReviews(r.Context(), actorFrom(r))
	if err != nil {
		s.respondServiceError(w, err, "list user reviews")
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewBookResponses(reviews))
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		BookID:    review.BookID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Text:      review.Text,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

func toReviewBookResponses(reviews []domain.ReviewWithBook) []reviewBookResponse {
	out := make([]reviewBookResponse, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, reviewBookResponse{
			reviewResponse: toReviewResponse(review.Review),
			BookTitle:      review.BookTitle,
		})
	}
	return out
}
