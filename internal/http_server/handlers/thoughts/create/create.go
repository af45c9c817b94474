package create

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
	"showerlog/internal/lib/tasktree"
	"showerlog/internal/models"
	"showerlog/internal/thoughts"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Request struct {
	Content  string           `json:"content" validate:"required,min=1"`
	Subtasks []models.Subtask `json:"subtasks" validate:"omitempty,dive"`
	AIData   *models.AIData   `json:"ai_data"`
	IsSaved  bool             `json:"is_saved"`
}

type Response struct {
	resp.Response
	Thought models.Thought `json:"thought"`
}

type ThoughtCreator interface {
	Create(ctx context.Context, userID uuid.UUID, in thoughts.NewThought) (models.Thought, error)
}

// New godoc
// @Summary      Create thought
// @Tags         thoughts
// @Accept       json
// @Produce      json
// @Param        request  body  Request  true  "Thought"
// @Success      201  {object}  Response
// @Failure      400  {object}  resp.Response
// @Failure      401  {object}  resp.Response
// @Router       /api/thoughts [post]
func New(log *slog.Logger, validate *validator.Validate, creator ThoughtCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.thoughts.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := session.UserID(r.Context())
		if !ok {
			api.Unauthorized(w, r)
			return
		}

		var req Request
		if !api.DecodeAndValidate(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		t, err := creator.Create(ctx, userID, thoughts.NewThought{
			Content:  req.Content,
			Subtasks: req.Subtasks,
			AIData:   req.AIData,
			IsSaved:  req.IsSaved,
		})
		if err != nil {
			switch {
			case errors.Is(err, tasktree.ErrTooDeep):
				api.Fail(w, r, http.StatusBadRequest, "Subtask tree is too deep")
			case errors.Is(err, tasktree.ErrDuplicateID):
				api.Fail(w, r, http.StatusBadRequest, "Subtask ids must be unique")
			default:
				log.Error("failed to create thought", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		log.Info("thought created", slog.String("thought_id", t.ID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Thought:  t,
		})
	}
}
