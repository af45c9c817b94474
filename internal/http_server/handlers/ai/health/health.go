package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sl "showerlog/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type Response struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type Checker interface {
	Health(ctx context.Context) (map[string]any, error)
}

// New always answers 200; an unreachable AI service is reported as offline.
func New(log *slog.Logger, checker Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ai.health.New"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		details, err := checker.Health(ctx)
		if err != nil {
			log.Warn("ai service is offline",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			render.JSON(w, r, Response{
				Status: StatusOffline,
				Error:  "AI service is unreachable",
			})

			return
		}

		render.JSON(w, r, Response{
			Status:  StatusOnline,
			Details: details,
		})
	}
}
