// Package session resolves the session cookie into a user id.
//
// Each request is in one of four states: no token, invalid or expired token,
// valid token for a user that no longer exists (or whose lookup failed), and
// valid token for an existing user. Pages decides redirects from that state
// and the route class; RequireUser and Identify serve the JSON API.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

const (
	CookieName   = "token"
	UserIDHeader = "X-User-Id"

	SignInPath    = "/signin"
	HomePath      = "/"
	DashboardPath = "/dashboard"
)

type state int

const (
	stateNoToken state = iota
	stateInvalid
	stateUserMissing
	stateValid
)

type RouteClass int

const (
	Neutral RouteClass = iota
	Protected
	PublicAuthOnly
	Asset
)

var (
	protectedRoutes = []string{"/dashboard", "/settings", "/saved"}
	publicRoutes    = []string{"/signin", "/signup", "/verify-email", "/reset-password", "/forgot-password"}
	assetPrefixes   = []string{"/assets/", "/static/"}
	assetFiles      = []string{"/favicon.ico", "/robots.txt"}
)

var hardeningHeaders = map[string]string{
	"X-Frame-Options":           "DENY",
	"X-Content-Type-Options":    "nosniff",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Permissions-Policy":        "camera=(), microphone=(), geolocation=()",
}

type ctxKey struct{}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserChecker interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Middleware struct {
	log     *slog.Logger
	tokens  TokenVerifier
	users   UserChecker
	cookies Cookies
}

func New(log *slog.Logger, tokens TokenVerifier, users UserChecker, cookies Cookies) *Middleware {
	return &Middleware{
		log:     log,
		tokens:  tokens,
		users:   users,
		cookies: cookies,
	}
}

// Classify maps a request path to its route class.
func Classify(path string) RouteClass {
	for _, p := range assetPrefixes {
		if strings.HasPrefix(path, p) {
			return Asset
		}
	}
	for _, f := range assetFiles {
		if path == f {
			return Asset
		}
	}

	if matchAny(path, protectedRoutes) {
		return Protected
	}
	if matchAny(path, publicRoutes) {
		return PublicAuthOnly
	}

	return Neutral
}

func matchAny(path string, routes []string) bool {
	for _, route := range routes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}

	return false
}

// UserID returns the user id stored by Pages, RequireUser or Identify.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)

	return id, ok
}

// WithUserID stores id in ctx the way the middleware does.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func (m *Middleware) resolve(r *http.Request) (state, uuid.UUID) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return stateNoToken, uuid.Nil
	}

	raw, err := m.tokens.Verify(c.Value)
	if err != nil {
		return stateInvalid, uuid.Nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return stateInvalid, uuid.Nil
	}

	exists, err := m.users.UserExists(r.Context(), id)
	if err != nil {
		m.log.Error("failed to check session user",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)

		return stateUserMissing, uuid.Nil
	}
	if !exists {
		return stateUserMissing, uuid.Nil
	}

	return stateValid, id
}

// Pages guards the page routes. Asset paths pass through untouched.
func (m *Middleware) Pages(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := Classify(r.URL.Path)
		if class == Asset {
			next.ServeHTTP(w, r)
			return
		}

		for k, v := range hardeningHeaders {
			w.Header().Set(k, v)
		}

		r.Header.Del(UserIDHeader)

		st, id := m.resolve(r)

		if class == Protected {
			switch st {
			case stateNoToken:
				redirect(w, r, SignInPath)
			case stateInvalid:
				m.cookies.Clear(w)
				redirect(w, r, SignInPath)
			case stateUserMissing:
				m.cookies.Clear(w)
				redirect(w, r, HomePath)
			case stateValid:
				r.Header.Set(UserIDHeader, id.String())
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
			}

			return
		}

		switch st {
		case stateValid:
			redirect(w, r, DashboardPath)
			return
		case stateInvalid, stateUserMissing:
			m.cookies.Clear(w)
		}

		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects API requests without a session for an existing user.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(UserIDHeader)

		st, id := m.resolve(r)
		if st != stateValid {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))
			return
		}

		r.Header.Set(UserIDHeader, id.String())
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// Identify stores the user id when the session is valid and never rejects.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(UserIDHeader)

		if st, id := m.resolve(r); st == stateValid {
			r.Header.Set(UserIDHeader, id.String())
			r = r.WithContext(WithUserID(r.Context(), id))
		}

		next.ServeHTTP(w, r)
	})
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusTemporaryRedirect)
}

// Cookies writes and clears the session cookie.
type Cookies struct {
	TTL    time.Duration
	Secure bool
}

func (c Cookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
