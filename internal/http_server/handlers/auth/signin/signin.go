package signin

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
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	User models.Summary `json:"user"`
}

type Authenticator interface {
	Login(ctx context.Context, email, pass string) (string, models.User, error)
}

// New godoc
// @Summary      Sign in
// @Description  Checks the credentials and sets the session cookie. Unverified accounts get 403.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  Request  true  "Credentials"
// @Success      200  {object}  Response
// @Failure      401  {object}  resp.Response  "Invalid credentials"
// @Failure      403  {object}  resp.Response  "Email not verified"
// @Router       /api/auth/signin [post]
func New(log *slog.Logger, validate *validator.Validate, authenticator Authenticator, cookies session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.signin.New"

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

		token, user, err := authenticator.Login(ctx, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrEmailNotVerified):
				api.Fail(w, r, http.StatusForbidden, "Please verify your email before signing in")
			case errors.Is(err, auth.ErrInvalidCredentials):
				api.Fail(w, r, http.StatusUnauthorized, "Invalid credentials")
			default:
				log.Error("failed to login user", sl.Err(err))
				api.Internal(w, r)
			}

			return
		}

		cookies.Set(w, token)

		log.Info("user logged in")

		ResponseOK(w, r, user.Summary())
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.Summary) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		User:     user,
	})
}
