package check

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/http_server/middleware/session"
	sl "showerlog/internal/lib/logger"
	"showerlog/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type Response struct {
	Authenticated bool            `json:"authenticated"`
	User          *models.Summary `json:"user"`
}

type UserProvider interface {
	User(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// New reports whether the caller has a valid session. It expects
// session.Identify in front of it and never fails.
func New(log *slog.Logger, users UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.check.New"

		userID, ok := session.UserID(r.Context())
		if !ok {
			render.JSON(w, r, Response{})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := users.User(ctx, userID)
		if err != nil {
			log.Warn("failed to load user",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			render.JSON(w, r, Response{})

			return
		}

		summary := user.Summary()

		render.JSON(w, r, Response{
			Authenticated: true,
			User:          &summary,
		})
	}
}
