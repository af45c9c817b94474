package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"showerlog/internal/lib/tasktree"
	"showerlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL, 5*time.Second)
}

func TestBreakdown(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/breakdown", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("ngrok-skip-browser-warning"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "learn go", body["thought"])

		_, _ = w.Write([]byte(`{"success":true,"timestamp":"now","data":{
			"main_goal":"Learn Go","category":"learning","priority":"high",
			"subtasks":[{"id":1,"title":"Tour","description":"","estimated_time":"2 hours","difficulty":"easy"}]}}`))
	})

	b, err := c.Breakdown(context.Background(), "learn go")
	require.NoError(t, err)
	assert.Equal(t, "Learn Go", b.MainGoal)
	require.Len(t, b.Subtasks, 1)
	assert.Equal(t, "2 hours", b.Subtasks[0].EstimatedTime)

	data := b.AIData()
	assert.Equal(t, "high", data.Priority)
}

func TestBreakdown_SuccessFalse(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"model overloaded"}`))
	})

	_, err := c.Breakdown(context.Background(), "x")
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestBreakdown_HTTPError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.Breakdown(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "502")
}

func TestBreakdownSmart_Defaults(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/breakdown-smart", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "build app", body["thought"])
		assert.Equal(t, "general", body["project_type"])
		assert.Equal(t, "moderate", body["complexity_level"])

		_, _ = w.Write([]byte(`{"success":true,"data":{"main_goal":"App","category":"work","priority":"low","subtasks":[]}}`))
	})

	b, err := c.BreakdownSmart(context.Background(), "  build app ", "", "")
	require.NoError(t, err)
	assert.Equal(t, "App", b.MainGoal)
}

func TestBreakdownNested(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/breakdown-nested", r.URL.Path)

		var body nestedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Frontend", body.ParentTask.Title)
		assert.Equal(t, "3 days", body.ParentTask.EstimatedTime)
		assert.Equal(t, "Build > Frontend", body.Context)
		assert.Equal(t, 2, body.Depth)
		assert.Equal(t, tasktree.NestedMaxDepth, body.MaxDepth)

		_, _ = w.Write([]byte(`{"success":true,"subtasks":[
			{"id":1,"title":"Forms","estimated_time":"1 day","difficulty":"medium"},
			{"id":2,"title":"Styles","estimated_time":"4 hours","difficulty":"easy"}]}`))
	})

	parent := models.Subtask{Title: "Frontend", EstimatedTime: "3 days", Difficulty: models.DifficultyHard}

	children, err := c.BreakdownNested(context.Background(), parent, "Build > Frontend", 2)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Forms", children[0].Title)
}

func TestRandomThoughts_Ngrok(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/generate-thoughts", r.URL.Path)
		assert.Equal(t, "true", r.Header.Get("ngrok-skip-browser-warning"))

		_, _ = w.Write([]byte(`{"success":true,"thoughts":["plant a garden","learn piano"]}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, time.Second)
	c.ngrok = true

	thoughts, err := c.RandomThoughts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"plant a garden", "learn piano"}, thoughts)

	assert.True(t, New("https://abc.ngrok-free.app", time.Second).ngrok)
}

func TestHealth(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","model":"gpt"}`))
	})

	details, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", details["status"])

	down := New("http://127.0.0.1:1", 200*time.Millisecond)
	_, err = down.Health(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
