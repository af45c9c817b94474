package breakdown

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/ai"
	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"
	"showerlog/internal/lib/tasktree"
	"showerlog/internal/models"
	"showerlog/internal/thoughts"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type Response struct {
	resp.Response
	Subtask models.Subtask `json:"subtask"`
}

type SubtaskBreaker interface {
	BreakdownSubtask(ctx context.Context, userID, id uuid.UUID, subtaskID int64) (models.Subtask, error)
}

// New breaks a leaf subtask into AI generated children. timeout bounds the
// whole request including the AI call.
func New(log *slog.Logger, breaker SubtaskBreaker, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.thoughts.breakdown.New"

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

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		node, err := breaker.BreakdownSubtask(ctx, userID, id, subtaskID)
		if err != nil {
			switch {
			case errors.Is(err, thoughts.ErrThoughtNotFound):
				api.NotFound(w, r, "Thought not found")
			case errors.Is(err, thoughts.ErrSubtaskNotFound):
				api.NotFound(w, r, "Subtask not found")
			case errors.Is(err, tasktree.ErrHasChildren):
				api.Fail(w, r, http.StatusBadRequest, "Subtask is already broken down")
			case errors.Is(err, tasktree.ErrDepthExceeded):
				api.Fail(w, r, http.StatusBadRequest, "Maximum breakdown depth reached")
			case errors.Is(err, tasktree.ErrNotEligible):
				api.Fail(w, r, http.StatusBadRequest, "Subtask is too small to break down")
			case errors.Is(err, ai.ErrUnavailable), errors.Is(err, ai.ErrFailed), errors.Is(err, thoughts.ErrEmptyBreakdown):
				log.Warn("ai breakdown failed", sl.Err(err))
				api.Fail(w, r, http.StatusBadGateway, "AI service failed to break down the subtask")
			default:
				log.Error("failed to break down subtask", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Subtask:  node,
		})
	}
}
