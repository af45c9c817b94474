package save

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

type Response struct {
	resp.Response
	IsSaved bool `json:"is_saved"`
}

type SaveToggler interface {
	ToggleSaved(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

func New(log *slog.Logger, toggler SaveToggler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.thoughts.save.New"

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

		saved, err := toggler.ToggleSaved(ctx, userID, id)
		if err != nil {
			if errors.Is(err, thoughts.ErrThoughtNotFound) {
				api.NotFound(w, r, "Thought not found")
				return
			}

			log.Error("failed to toggle saved", sl.Err(err))
			api.Internal(w, r)

			return
		}

		msg := "Thought unsaved"
		if saved {
			msg = "Thought saved"
		}

		render.JSON(w, r, Response{
			Response: resp.OKMessage(msg),
			IsSaved:  saved,
		})
	}
}
