package resetpassword

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/auth"
	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type PasswordResetter interface {
	ResetPassword(ctx context.Context, token, newPass string) error
}

func New(log *slog.Logger, validate *validator.Validate, resetter PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.resetpassword.New"

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

		err := resetter.ResetPassword(ctx, req.Token, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				api.Fail(w, r, http.StatusBadRequest, "Invalid reset token")
			case errors.Is(err, auth.ErrTokenExpired):
				api.Fail(w, r, http.StatusBadRequest, "Reset token has expired")
			default:
				log.Error("failed to reset password", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		render.JSON(w, r, resp.OKMessage("Password has been reset. You can now sign in."))
	}
}
