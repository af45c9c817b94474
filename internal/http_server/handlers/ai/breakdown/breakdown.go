package breakdown

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/ai"
	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Thought         string `json:"thought" validate:"required,min=1"`
	ProjectType     string `json:"project_type,omitempty"`
	ComplexityLevel string `json:"complexity_level,omitempty" validate:"omitempty,oneof=simple moderate complex enterprise"`
}

type Response struct {
	resp.Response
	Data ai.Breakdown `json:"data"`
}

type Breaker interface {
	Breakdown(ctx context.Context, thought string) (ai.Breakdown, error)
	BreakdownSmart(ctx context.Context, thought, projectType, complexity string) (ai.Breakdown, error)
}

// New proxies a thought to the AI service. The smart endpoint is used when
// the caller supplies a project type or complexity level.
func New(log *slog.Logger, validate *validator.Validate, breaker Breaker, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ai.breakdown.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !api.DecodeAndValidate(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var (
			result ai.Breakdown
			err    error
		)
		if req.ProjectType != "" || req.ComplexityLevel != "" {
			result, err = breaker.BreakdownSmart(ctx, req.Thought, req.ProjectType, req.ComplexityLevel)
		} else {
			result, err = breaker.Breakdown(ctx, req.Thought)
		}
		if err != nil {
			log.Warn("ai breakdown failed", sl.Err(err))
			api.Fail(w, r, http.StatusBadGateway, "AI service failed to break down the thought")

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Data:     result,
		})
	}
}
