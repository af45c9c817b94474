package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	resp "showerlog/internal/lib/api/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
)

// CounterFactory returns a fresh counter for the named limit. Every limit
// needs its own counter.
type CounterFactory func(name string) httprate.LimitCounter

// Limiter builds the per-IP limits of the auth endpoints. Counters are kept
// in memory unless a CounterFactory is given.
type Limiter struct {
	log      *slog.Logger
	counters CounterFactory
}

func New(log *slog.Logger, counters CounterFactory) *Limiter {
	return &Limiter{
		log:      log,
		counters: counters,
	}
}

func (l *Limiter) Signup() func(http.Handler) http.Handler {
	return l.limitByIP("signup", 5, time.Hour)
}

func (l *Limiter) Signin() func(http.Handler) http.Handler {
	return l.limitByIP("signin", 10, 5*time.Minute)
}

func (l *Limiter) Verify() func(http.Handler) http.Handler {
	return l.limitByIP("verify", 10, 10*time.Minute)
}

func (l *Limiter) ResendVerification() func(http.Handler) http.Handler {
	return l.limitByIP("resend", 3, time.Hour)
}

func (l *Limiter) ForgotPassword() func(http.Handler) http.Handler {
	return l.limitByIP("forgot", 5, time.Hour)
}

func (l *Limiter) ResetPassword() func(http.Handler) http.Handler {
	return l.limitByIP("reset", 10, 10*time.Minute)
}

func (l *Limiter) limitByIP(name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	opts := []httprate.Option{
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(l.tooManyRequests(name)),
	}

	if l.counters != nil {
		opts = append(opts, httprate.WithLimitCounter(l.counters(name)))
	}

	return httprate.Limit(limit, window, opts...)
}

func (l *Limiter) tooManyRequests(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l.log.Warn("rate limit exceeded",
			slog.String("limit", name),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, resp.Error("Too many requests, please try again later"))
	}
}
