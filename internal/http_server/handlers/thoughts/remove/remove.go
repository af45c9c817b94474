package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"
	"showerlog/internal/thoughts"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type ThoughtDeleter interface {
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

func New(log *slog.Logger, deleter ThoughtDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.thoughts.remove.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := session.UserID(r.Context())
		if !ok {
			api.Unauthorized(w, r)
			return
		}

		id, ok := api.UUIDParam(r, "id")
		if !ok {
			api.NotFound(w, r, "Thought not found")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := deleter.Delete(ctx, userID, id); err != nil {
			if errors.Is(err, thoughts.ErrThoughtNotFound) {
				api.NotFound(w, r, "Thought not found")
				return
			}

			log.Error("failed to delete thought", sl.Err(err))
			api.Internal(w, r)

			return
		}

		render.JSON(w, r, resp.OKMessage("Thought deleted"))
	}
}
