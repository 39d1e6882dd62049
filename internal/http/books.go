package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/book-reviews/internal/domain"
	"github.com/Clark-Hu/book-reviews/internal/service"
)

type bookRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Author      string `json:"author" validate:"required,max=300"`
	Description string `json:"description" validate:"required,max=10000"`
	Genre       string `json:"genre" validate:"required,max=100"`
	Year        *int   `json:"year" validate:"required"`
}

func (req bookRequest) fields() domain.BookFields {
	fields := domain.BookFields{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Genre:       req.Genre,
	}
	if req.Year != nil {
		fields.Year = *req.Year
	}
	return fields
}

type idResponse struct {
	ID string `json:"id"`
}

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	Year        int       `json:"year"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type bookSummaryResponse struct {
	bookResponse
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
	CreatorName string  `json:"creatorName"`
}

type bookPageResponse struct {
	Page           []bookSummaryResponse `json:"page"`
	ContinueCursor string                `json:"continueCursor"`
	IsDone         bool                  `json:"isDone"`
}

type ratingBucketResponse struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type bookDetailResponse struct {
	bookResponse
	AvgRating          float64                `json:"avgRating"`
	ReviewCount        int                    `json:"reviewCount"`
	CreatorName        string                 `json:"creatorName"`
	Reviews            []reviewAuthorResponse `json:"reviews"`
	RatingDistribution []ratingBucketResponse `json:"ratingDistribution"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	params, err := buildBookQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	page, err := s.svc.ListBooks(r.Context(), params)
	if err != nil {
		s.respondServiceError(w, err, "list books")
		return
	}

	resp := bookPageResponse{
		Page:           make([]bookSummaryResponse, 0, len(page.Page)),
		ContinueCursor: page.ContinueCursor,
		IsDone:         page.IsDone,
	}
	for _, summary := range page.Page {
		resp.Page = append(resp.Page, bookSummaryResponse{
			bookResponse: toBookResponse(summary.Book),
			AvgRating:    summary.AvgRating,
			ReviewCount:  summary.ReviewCount,
			CreatorName:  summary.CreatorName,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func buildBookQuery(query url.Values) (service.ListBooksParams, error) {
	var params service.ListBooksParams

	if val := strings.TrimSpace(query.Get("search")); val != "" {
		params.Search = &val
	}
	if val := strings.TrimSpace(query.Get("genre")); val != "" {
		params.Genre = &val
	}
	params.SortBy = strings.TrimSpace(query.Get("sortBy"))
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit < 0 {
			return params, fmt.Errorf("invalid limit value")
		}
		params.Limit = limit
	}
	params.Cursor = strings.TrimSpace(query.Get("cursor"))
	return params, nil
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.Authenticated() {
		s.respondServiceError(w, domain.ErrUnauthenticated, "create book")
		return
	}

	var req bookRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := s.svc.AddBook(r.Context(), actor, req.fields())
	if err != nil {
		s.respondServiceError(w, err, "create book")
		return
	}
	w.Header().Set("Location", "/books/"+url.PathEscape(id))
	s.respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	detail, found, err := s.svc.GetBook(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		s.respondServiceError(w, err, "fetch book")
		return
	}
	if !found {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found")
		return
	}

	resp := bookDetailResponse{
		bookResponse:       toBookResponse(detail.Book),
		AvgRating:          detail.AvgRating,
		ReviewCount:        detail.ReviewCount,
		CreatorName:        detail.CreatorName,
		Reviews:            make([]reviewAuthorResponse, 0, len(detail.Reviews)),
		RatingDistribution: make([]ratingBucketResponse, 0, len(detail.RatingDistribution)),
	}
	for _, review := range detail.Reviews {
		resp.Reviews = append(resp.Reviews, reviewAuthorResponse{
			reviewResponse: toReviewResponse(review.Review),
			UserName:       review.UserName,
		})
	}
	for _, bucket := range detail.RatingDistribution {
		resp.RatingDistribution = append(resp.RatingDistribution, ratingBucketResponse{Rating: bucket.Rating, Count: bucket.Count})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.Authenticated() {
		s.respondServiceError(w, domain.ErrUnauthenticated, "update book")
		return
	}

	var req bookRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.svc.UpdateBook(r.Context(), actor, chi.URLParam(r, "bookID"), req.fields()); err != nil {
		s.respondServiceError(w, err, "update book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteBook(r.Context(), actorFrom(r), chi.URLParam(r, "bookID")); err != nil {
		s.respondServiceError(w, err, "delete book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.svc.ListUserBooks(r.Context(), actorFrom(r))
	if err != nil {
		s.respondServiceError(w, err, "list user books")
		return
	}
	s.respondJSON(w, http.StatusOK, toBookResponses(books))
}

func toBookResponse(book domain.Book) bookResponse {
	return bookResponse{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Genre:       book.Genre,
		Year:        book.Year,
		OwnerID:     book.OwnerID,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
	}
}

func toBookResponses(books []domain.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, book := range books {
		out = append(out, toBookResponse(book))
	}
	return out
}
