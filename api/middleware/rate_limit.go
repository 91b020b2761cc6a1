package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/opticalquote-backend/api/responses"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

// limiterIdleTTL bounds how long an unused staff limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type staffLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// StaffLimiters hands out one token bucket per staff member.
type StaffLimiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	entries map[string]*staffLimiter
	now     func() time.Time
}

func NewStaffLimiters(perSecond float64, burst int) *StaffLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &StaffLimiters{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		entries: make(map[string]*staffLimiter),
		now:     time.Now,
	}
}

func (s *StaffLimiters) enabled() bool {
	return s != nil && s.limit > 0
}

func (s *StaffLimiters) allow(staffID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdle(now)

	entry, ok := s.entries[staffID]
	if !ok {
		entry = &staffLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[staffID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdle must be called with mu held.
func (s *StaffLimiters) evictIdle(now time.Time) {
	for id, entry := range s.entries {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(s.entries, id)
		}
	}
}

// StaffRateLimit throttles requests per X-Staff-Id. It must run after
// StaffContext. A nil or zero-rate limiter disables throttling.
func StaffRateLimit(limiters *StaffLimiters, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !limiters.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			staffID := StaffIDFromContext(ctx)
			if staffID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !limiters.allow(staffID) {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"path": r.URL.Path,
					}), "staff rate limit exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
