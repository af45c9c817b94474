package forgotpassword

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

const Message = "If an account with that email exists, a password reset link has been sent."

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetRequester interface {
	ForgotPassword(ctx context.Context, email string) error
}

func New(log *slog.Logger, validate *validator.Validate, requester ResetRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.forgotpassword.New"

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

		if err := requester.ForgotPassword(ctx, req.Email); err != nil {
			log.Error("failed to process password reset request", sl.Err(err))
		}

		render.JSON(w, r, resp.OKMessage(Message))
	}
}
