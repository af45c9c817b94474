package deleteaccount

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type AccountDeleter interface {
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

func New(log *slog.Logger, deleter AccountDeleter, cookies session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.deleteaccount.New"

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

		if err := deleter.DeleteAccount(ctx, userID); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				cookies.Clear(w)
				api.Unauthorized(w, r)
				return
			}

			log.Error("failed to delete account", sl.Err(err))
			api.Internal(w, r)

			return
		}

		cookies.Clear(w)

		render.JSON(w, r, resp.OKMessage("Account deleted successfully"))
	}
}
