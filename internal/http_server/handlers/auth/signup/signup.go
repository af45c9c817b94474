package signup

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
	"github.com/google/uuid"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
}

type Response struct {
	resp.Response
	UserID uuid.UUID `json:"userId"`
}

type UserRegistrar interface {
	RegisterNewUser(ctx context.Context, email, name, pass string) (uuid.UUID, error)
}

// New godoc
// @Summary      Sign up
// @Description  Creates an unverified account and sends the verification email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  Request  true  "Account data"
// @Success      200  {object}  Response
// @Failure      400  {object}  resp.Response  "Invalid input or email already registered"
// @Failure      429  {object}  resp.Response
// @Failure      500  {object}  resp.Response
// @Router       /api/auth/signup [post]
func New(log *slog.Logger, validate *validator.Validate, registrar UserRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.signup.New"

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

		userID, err := registrar.RegisterNewUser(ctx, req.Email, req.Name, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				api.Fail(w, r, http.StatusBadRequest, "User already exists")
				return
			}

			log.Error("failed to register user", sl.Err(err))
			api.Internal(w, r)

			return
		}

		log.Info("user registered", slog.String("uid", userID.String()))

		ResponseOK(w, r, userID)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	render.JSON(w, r, Response{
		Response: resp.OKMessage("Account created. Please check your email to verify your account."),
		UserID:   userID,
	})
}
