package list

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"
	"showerlog/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Response struct {
	resp.Response
	Thoughts   []models.Thought  `json:"thoughts"`
	Pagination models.Pagination `json:"pagination"`
}

// Lister is satisfied by both thoughts.Service.List and thoughts.Service.Saved,
// so the same handler serves the saved list.
type Lister func(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Thought, models.Pagination, error)

func New(log *slog.Logger, validate *validator.Validate, lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.thoughts.list.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := session.UserID(r.Context())
		if !ok {
			api.Unauthorized(w, r)
			return
		}

		page, ok := api.Page(w, r, log, validate)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		list, pagination, err := lister(ctx, userID, page.Page, page.Limit)
		if err != nil {
			log.Error("failed to list thoughts", sl.Err(err))
			api.Internal(w, r)

			return
		}

		ResponseOK(w, r, list, pagination)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, list []models.Thought, pagination models.Pagination) {
	if list == nil {
		list = []models.Thought{}
	}

	render.JSON(w, r, Response{
		Response:   resp.OK(),
		Thoughts:   list,
		Pagination: pagination,
	})
}
