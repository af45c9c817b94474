package user

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/auth"
	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"
	"showerlog/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type Response struct {
	resp.Response
	User models.Summary `json:"user"`
}

type UserProvider interface {
	User(ctx context.Context, userID uuid.UUID) (models.User, error)
}

func New(log *slog.Logger, users UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.user.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := session.UserID(r.Context())
		if !ok {
			api.Unauthorized(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		u, err := users.User(ctx, userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				api.Unauthorized(w, r)
				return
			}

			log.Error("failed to load user", sl.Err(err))
			api.Internal(w, r)

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     u.Summary(),
		})
	}
}
