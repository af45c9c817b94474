package changepassword

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"showerlog/internal/auth"
	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/lib/api"
	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Request struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID uuid.UUID, current, newPass string) error
}

func New(log *slog.Logger, validate *validator.Validate, changer PasswordChanger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.changepassword.New"

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

		err := changer.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				api.Fail(w, r, http.StatusBadRequest, "Current password is incorrect")
			case errors.Is(err, auth.ErrUserNotFound):
				api.Unauthorized(w, r)
			default:
				log.Error("failed to change password", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		log.Info("password changed")

		render.JSON(w, r, resp.OKMessage("Password updated successfully"))
	}
}
