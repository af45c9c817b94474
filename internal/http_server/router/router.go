// Package router wires the HTTP middleware and handlers.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/ai"
	"showerlog/internal/auth"
	aibreakdown "showerlog/internal/http_server/handlers/ai/breakdown"
	"showerlog/internal/http_server/handlers/ai/health"
	"showerlog/internal/http_server/handlers/ai/random"
	"showerlog/internal/http_server/handlers/auth/changepassword"
	"showerlog/internal/http_server/handlers/auth/check"
	"showerlog/internal/http_server/handlers/auth/deleteaccount"
	"showerlog/internal/http_server/handlers/auth/forgotpassword"
	"showerlog/internal/http_server/handlers/auth/logout"
	"showerlog/internal/http_server/handlers/auth/resendverification"
	"showerlog/internal/http_server/handlers/auth/resetpassword"
	"showerlog/internal/http_server/handlers/auth/signin"
	"showerlog/internal/http_server/handlers/auth/signup"
	"showerlog/internal/http_server/handlers/auth/updateprofile"
	"showerlog/internal/http_server/handlers/auth/user"
	"showerlog/internal/http_server/handlers/auth/verifyemail"
	"showerlog/internal/http_server/handlers/thoughts/breakdown"
	"showerlog/internal/http_server/handlers/thoughts/create"
	"showerlog/internal/http_server/handlers/thoughts/list"
	"showerlog/internal/http_server/handlers/thoughts/remove"
	"showerlog/internal/http_server/handlers/thoughts/save"
	"showerlog/internal/http_server/handlers/thoughts/subtask"
	"showerlog/internal/http_server/middleware/ratelimit"
	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/thoughts"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

// AIService is the part of the AI client exposed through the proxy routes.
type AIService interface {
	Breakdown(ctx context.Context, thought string) (ai.Breakdown, error)
	BreakdownSmart(ctx context.Context, thought, projectType, complexity string) (ai.Breakdown, error)
	RandomThoughts(ctx context.Context) ([]string, error)
	Health(ctx context.Context) (map[string]any, error)
}

type Deps struct {
	Log       *slog.Logger
	Validate  *validator.Validate
	Auth      *auth.Auth
	Thoughts  *thoughts.Service
	AI        AIService
	AITimeout time.Duration
	Session   *session.Middleware
	Cookies   session.Cookies
	Limiter   *ratelimit.Limiter
	// Frontend serves every path that is not part of the API. Nil disables
	// the page routes.
	Frontend http.Handler
}

func New(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	log, v := d.Log, d.Validate

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			verifyLimit := d.Limiter.Verify()

			r.With(d.Limiter.Signup()).Post("/signup", signup.New(log, v, d.Auth))
			r.With(d.Limiter.Signin()).Post("/signin", signin.New(log, v, d.Auth, d.Cookies))
			r.With(verifyLimit).Get("/verify-email", verifyemail.New(log, v, d.Auth))
			r.With(verifyLimit).Post("/verify-email", verifyemail.New(log, v, d.Auth))
			r.With(d.Limiter.ResendVerification()).Post("/resend-verification", resendverification.New(log, v, d.Auth))
			r.With(d.Limiter.ForgotPassword()).Post("/forgot-password", forgotpassword.New(log, v, d.Auth))
			r.With(d.Limiter.ResetPassword()).Post("/reset-password", resetpassword.New(log, v, d.Auth))
			r.Post("/logout", logout.New(log, d.Cookies))
			r.With(d.Session.Identify).Get("/check", check.New(log, d.Auth))

			r.Group(func(r chi.Router) {
				r.Use(d.Session.RequireUser)

				r.Get("/user", user.New(log, d.Auth))
				r.Post("/change-password", changepassword.New(log, v, d.Auth))
				r.Post("/update-profile", updateprofile.New(log, v, d.Auth))
				r.Delete("/delete-account", deleteaccount.New(log, d.Auth, d.Cookies))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(d.Session.RequireUser)

			r.Post("/thoughts", create.New(log, v, d.Thoughts))
			r.Get("/thoughts", list.New(log, v, d.Thoughts.List))
			r.Delete("/thoughts/{id}", remove.New(log, d.Thoughts))
			r.Post("/thoughts/{id}/save", save.New(log, d.Thoughts))
			r.Patch("/thoughts/{id}/subtasks/{subtaskId}", subtask.New(log, v, d.Thoughts))
			r.Post("/thoughts/{id}/subtasks/{subtaskId}/breakdown", breakdown.New(log, d.Thoughts, d.AITimeout))
			r.Get("/saved-thoughts", list.New(log, v, d.Thoughts.Saved))

			r.Post("/ai/breakdown", aibreakdown.New(log, v, d.AI, d.AITimeout))
			r.Get("/ai/random-thoughts", random.New(log, d.AI, d.AITimeout))
		})

		r.Get("/ai/health", health.New(log, d.AI))
	})

	if d.Frontend != nil {
		r.Group(func(r chi.Router) {
			r.Use(d.Session.Pages)

			r.Get("/*", d.Frontend.ServeHTTP)
		})
	}

	return r
}
