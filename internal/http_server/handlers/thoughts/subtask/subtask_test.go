package subtask

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"showerlog/internal/http_server/middleware/session"
	"showerlog/internal/lib/api/validate"
	"showerlog/internal/lib/logger/handlers/slogdiscard"
	"showerlog/internal/models"
	"showerlog/internal/thoughts"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updaterStub struct {
	err       error
	gotID     int64
	completed bool
}

func (u *updaterStub) SetSubtaskCompleted(_ context.Context, _, id uuid.UUID, subtaskID int64, completed bool) (models.Thought, error) {
	u.gotID = subtaskID
	u.completed = completed
	return models.Thought{ID: id, Progress: 100}, u.err
}

func serve(t *testing.T, stub *updaterStub, userID *uuid.UUID, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Patch("/api/thoughts/{id}/subtasks/{subtaskId}", New(slogdiscard.NewDiscardLogger(), validate.New(), stub))

	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
	if userID != nil {
		req = req.WithContext(session.WithUserID(req.Context(), *userID))
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestNew(t *testing.T) {
	userID := uuid.New()
	thoughtPath := "/api/thoughts/" + uuid.NewString() + "/subtasks/"

	tests := []struct {
		name     string
		user     *uuid.UUID
		path     string
		body     string
		err      error
		wantCode int
	}{
		{name: "completes", user: &userID, path: thoughtPath + "7", body: `{"completed":true}`, wantCode: http.StatusOK},
		{name: "uncompletes", user: &userID, path: thoughtPath + "7", body: `{"completed":false}`, wantCode: http.StatusOK},
		{name: "no session", path: thoughtPath + "7", body: `{"completed":true}`, wantCode: http.StatusUnauthorized},
		{name: "bad thought id", user: &userID, path: "/api/thoughts/abc/subtasks/7", body: `{"completed":true}`, wantCode: http.StatusNotFound},
		{name: "bad subtask id", user: &userID, path: thoughtPath + "x", body: `{"completed":true}`, wantCode: http.StatusNotFound},
		{name: "missing flag", user: &userID, path: thoughtPath + "7", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "thought not owned", user: &userID, path: thoughtPath + "7", body: `{"completed":true}`, err: thoughts.ErrThoughtNotFound, wantCode: http.StatusNotFound},
		{name: "subtask missing", user: &userID, path: thoughtPath + "7", body: `{"completed":true}`, err: thoughts.ErrSubtaskNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &updaterStub{err: tt.err}

			rec := serve(t, stub, tt.user, tt.path, tt.body)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusOK {
				assert.EqualValues(t, 7, stub.gotID)
				assert.Equal(t, strings.Contains(tt.body, "true"), stub.completed)
			}
		})
	}
}
