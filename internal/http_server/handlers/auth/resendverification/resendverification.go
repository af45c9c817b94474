package resendverification

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
	"github.com/go-playground/validator/v10"
)

const message = "If an unverified account exists for this email, a new verification link has been sent."

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type VerificationResender interface {
	ResendVerification(ctx context.Context, email string) error
}

func New(log *slog.Logger, validate *validator.Validate, resender VerificationResender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.resendverification.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !api.DecodeAndValidate(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		// The answer must not reveal whether the account exists.
		if err := resender.ResendVerification(ctx, req.Email); err != nil {
			log.Error("failed to resend verification", sl.Err(err))
		}

		render.JSON(w, r, resp.OKMessage(message))
	}
}
