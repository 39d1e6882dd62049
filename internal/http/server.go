package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/book-reviews/internal/auth"
	"github.com/Clark-Hu/book-reviews/internal/config"
	"github.com/Clark-Hu/book-reviews/internal/service"
	"github.com/Clark-Hu/book-reviews/internal/store"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	svc     *service.Service
	tokens  *auth.Issuer
	revoker *auth.Revoker
	limiter *rateLimiter
	logger  *log.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, svc *service.Service, tokens *auth.Issuer, revoker *auth.Revoker, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		svc:     svc,
		tokens:  tokens,
		revoker: revoker,
		limiter: newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// Forwarded-for headers are client controlled unless a trusted proxy sets them.
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)
	s.router = r
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Group(func(r chi.Router) {
		r.Use(s.identify)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleCreateBook)
			r.Route("/{bookID}", func(r chi.Router) {
				r.Get("/", s.handleGetBook)
				r.Put("/", s.handleUpdateBook)
				r.Delete("/", s.handleDeleteBook)
				r.Post("/reviews", s.handleCreateReview)
			})
		})
		r.Route("/reviews/{reviewID}", func(r chi.Router) {
			r.Put("/", s.handleUpdateReview)
			r.Delete("/", s.handleDeleteReview)
		})
		r.Route("/me", func(r chi.Router) {
			r.Get("/", s.handleProfile)
			r.Get("/books", s.handleUserBooks)
			r.Get("/reviews", s.handleUserReviews)
		})
	})
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and reports the final pool usage.
func (s *Server) Shutdown(ctx context.Context) error {
	if stats := s.store.Stats(); stats != nil {
		s.logger.Printf("store: pool total=%d idle=%d acquired=%d acquires=%d",
			stats.TotalConns(), stats.IdleConns(), stats.AcquiredConns(), stats.AcquireCount())
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
