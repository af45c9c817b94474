package logout

import (
	"log/slog"
	"net/http"

	"showerlog/internal/http_server/middleware/session"
	resp "showerlog/internal/lib/api/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// New clears the session cookie. Tokens are stateless, so nothing is revoked
// server side.
func New(log *slog.Logger, cookies session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.logout.New"

		cookies.Clear(w)

		log.Info("logout successful",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		render.JSON(w, r, resp.OKMessage("Logged out successfully"))
	}
}
