package verifyemail

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
	Token string `json:"token" validate:"required"`
}

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

// New accepts the token from the query string on GET (email links) and from
// the JSON body on POST.
func New(log *slog.Logger, validate *validator.Validate, verifier EmailVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.verifyemail.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if r.Method == http.MethodGet {
			req.Token = r.URL.Query().Get("token")
			if !api.Validate(w, r, log, validate, &req) {
				return
			}
		} else if !api.DecodeAndValidate(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := verifier.VerifyEmail(ctx, req.Token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidToken):
				api.Fail(w, r, http.StatusBadRequest, "Invalid or expired verification token")
			case errors.Is(err, auth.ErrAlreadyVerified):
				api.Fail(w, r, http.StatusBadRequest, "Email already verified")
			default:
				log.Error("failed to verify email", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		render.JSON(w, r, resp.OKMessage("Email verified successfully. You can now sign in."))
	}
}
