package updateprofile

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
	"showerlog/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Request carries the new display name. The 255 character limit applies
// after trimming and is enforced by the service.
type Request struct {
	Name string `json:"name" validate:"max=1024"`
}

type Response struct {
	resp.Response
	User models.Summary `json:"user"`
}

type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, name string) (models.User, error)
}

func New(log *slog.Logger, validate *validator.Validate, updater ProfileUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.updateprofile.New"

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

		user, err := updater.UpdateProfile(ctx, userID, req.Name)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNameTooLong):
				api.Fail(w, r, http.StatusBadRequest, "Name must be 255 characters or less")
			case errors.Is(err, auth.ErrUserNotFound):
				api.Unauthorized(w, r)
			default:
				log.Error("failed to update profile", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OKMessage("Profile updated successfully"),
			User:     user.Summary(),
		})
	}
}
