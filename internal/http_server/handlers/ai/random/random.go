package random

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Thoughts []string `json:"thoughts"`
}

type ThoughtGenerator interface {
	RandomThoughts(ctx context.Context) ([]string, error)
}

func New(log *slog.Logger, generator ThoughtGenerator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ai.random.New"

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		thoughts, err := generator.RandomThoughts(ctx)
		if err != nil {
			log.Warn("failed to generate thoughts",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			api.Fail(w, r, http.StatusBadGateway, "AI service failed to generate thoughts")

			return
		}

		if thoughts == nil {
			thoughts = []string{}
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Thoughts: thoughts,
		})
	}
}
