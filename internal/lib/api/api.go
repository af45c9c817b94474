// Package api holds the request plumbing shared by the HTTP handlers.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	resp "showerlog/internal/lib/api/response"
	sl "showerlog/internal/lib/logger"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DecodeAndValidate decodes the JSON body into dst and validates it. On
// failure it writes a 400 response and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			log.Info("request body is empty")
			Fail(w, r, http.StatusBadRequest, "Empty request")
			return false
		}

		log.Info("failed to decode request body", sl.Err(err))
		Fail(w, r, http.StatusBadRequest, "Failed to decode request")
		return false
	}

	return Validate(w, r, log, validate, dst)
}

// Validate runs the struct validator over v and writes a 400 with field
// details on failure.
func Validate(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	log.Info("invalid request", sl.Err(err))

	var validateErr validator.ValidationErrors
	if errors.As(err, &validateErr) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ValidationError(validateErr))
		return false
	}

	Fail(w, r, http.StatusBadRequest, "Invalid input")

	return false
}

func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, resp.Error(msg))
}

func Internal(w http.ResponseWriter, r *http.Request) {
	Fail(w, r, http.StatusInternalServerError, "Internal error")
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Fail(w, r, http.StatusUnauthorized, "Unauthorized")
}

func NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	Fail(w, r, http.StatusNotFound, msg)
}

// UUIDParam parses the named chi URL parameter.
func UUIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

// IntParam parses the named chi URL parameter as a base 10 int64.
func IntParam(r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, false
	}

	return n, true
}
