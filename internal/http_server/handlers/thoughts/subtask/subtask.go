package subtask

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
	"showerlog/internal/models"
	"showerlog/internal/thoughts"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Request struct {
	Completed *bool `json:"completed" validate:"required"`
}

type Response struct {
	resp.Response
	Thought models.Thought `json:"thought"`
}

type SubtaskUpdater interface {
	SetSubtaskCompleted(ctx context.Context, userID, id uuid.UUID, subtaskID int64, completed bool) (models.Thought, error)
}

func New(log *slog.Logger, validate *validator.Validate, updater SubtaskUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.thoughts.subtask.New"

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

		subtaskID, ok := api.IntParam(r, "subtaskId")
		if !ok {
			api.NotFound(w, r, "Subtask not found")
			return
		}

		var req Request
		if !api.DecodeAndValidate(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		t, err := updater.SetSubtaskCompleted(ctx, userID, id, subtaskID, *req.Completed)
		if err != nil {
			switch {
			case errors.Is(err, thoughts.ErrThoughtNotFound):
				api.NotFound(w, r, "Thought not found")
			case errors.Is(err, thoughts.ErrSubtaskNotFound):
				api.NotFound(w, r, "Subtask not found")
			default:
				log.Error("failed to update subtask", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Thought:  t,
		})
	}
}
