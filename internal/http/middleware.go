package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Clark-Hu/book-reviews/internal/auth"
	"github.com/Clark-Hu/book-reviews/internal/domain"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	claimsKey
)

// identify resolves the caller from the Authorization header. Requests without the header run
// as anonymous; a header carrying an unusable token is rejected.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		claims, err := s.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		revoked, err := s.revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			s.logger.Printf("revocation lookup failed: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify credentials")
			return
		}
		if revoked {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, domain.Actor{UserID: claims.Sub})
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(r *http.Request) domain.Actor {
	if actor, ok := r.Context().Value(actorKey).(domain.Actor); ok {
		return actor
	}
	return domain.Anonymous
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter hands out one token bucket per client address.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

// newRateLimiter returns nil, which disables limiting, when rps is zero.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		clients:   make(map[string]*clientLimiter),
		rate:      rate.Limit(rps),
		burst:     burst,
		idle:      5 * time.Minute,
		lastSweep: time.Now(),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > rl.idle {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.idle {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.allow(clientKey(r)) {
			s.respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey strips the port so every connection from one host shares a bucket. The address is the
// TCP peer unless the server was configured to trust proxy headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
