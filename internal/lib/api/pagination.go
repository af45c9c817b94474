package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 10_000_000
)

type PageRequest struct {
	Page  int `json:"page" validate:"min=1,max=10000000"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

// Page reads ?page= and ?limit= with defaults applied. Malformed or out of
// range values get a 400 and ok=false.
func Page(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate) (PageRequest, bool) {
	req := PageRequest{Page: DefaultPage, Limit: DefaultLimit}

	q := r.URL.Query()
	for name, dst := range map[string]*int{"page": &req.Page, "limit": &req.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Info("invalid pagination parameter", slog.String("param", name), slog.String("value", raw))
			Fail(w, r, http.StatusBadRequest, "Invalid "+name+" parameter")
			return PageRequest{}, false
		}
		*dst = n
	}

	if !Validate(w, r, log, validate, &req) {
		return PageRequest{}, false
	}

	return req, true
}
