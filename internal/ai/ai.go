// Package ai is a client for the task breakdown AI service.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"showerlog/internal/lib/tasktree"
	"showerlog/internal/models"
)

const maxErrorBody = 1 << 10

var (
	ErrUnavailable = errors.New("ai service unavailable")
	ErrFailed      = errors.New("ai service reported failure")
)

// Breakdown is the result of decomposing a thought.
type Breakdown struct {
	MainGoal            string           `json:"main_goal"`
	Subtasks            []models.Subtask `json:"subtasks"`
	Category            string           `json:"category"`
	Priority            string           `json:"priority"`
	ProjectType         string           `json:"project_type,omitempty"`
	ComplexityScore     float64          `json:"complexity_score,omitempty"`
	TotalEstimatedHours float64          `json:"total_estimated_hours,omitempty"`
}

// AIData converts the breakdown into the form stored with a thought.
func (b Breakdown) AIData() *models.AIData {
	return &models.AIData{
		MainGoal: b.MainGoal,
		Category: b.Category,
		Priority: b.Priority,
		Subtasks: b.Subtasks,
	}
}

type envelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type breakdownResponse struct {
	envelope
	Data *Breakdown `json:"data"`
}

type nestedResponse struct {
	envelope
	Subtasks  []models.Subtask `json:"subtasks"`
	Context   string           `json:"context,omitempty"`
	Reasoning string           `json:"breakdown_reasoning,omitempty"`
}

type thoughtsResponse struct {
	envelope
	Thoughts []string `json:"thoughts"`
}

type ParentTask struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Difficulty    string `json:"difficulty"`
	EstimatedTime string `json:"estimated_time"`
}

type nestedRequest struct {
	ParentTask ParentTask `json:"parent_task"`
	Context    string     `json:"context"`
	Depth      int        `json:"depth"`
	MaxDepth   int        `json:"max_depth"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	ngrok      bool
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		ngrok:      strings.Contains(baseURL, "ngrok"),
	}
}

// Breakdown asks POST /breakdown to split thought into subtasks.
func (c *Client) Breakdown(ctx context.Context, thought string) (Breakdown, error) {
	const op = "ai.Breakdown"

	var resp breakdownResponse
	if err := c.do(ctx, http.MethodPost, "/breakdown", map[string]string{"thought": thought}, &resp); err != nil {
		return Breakdown{}, fmt.Errorf("%s: %w", op, err)
	}

	if resp.Data == nil {
		return Breakdown{}, fmt.Errorf("%s: %w: empty data", op, ErrFailed)
	}

	return *resp.Data, nil
}

// BreakdownSmart calls POST /breakdown-smart. Empty projectType and complexity
// default to "general" and "moderate".
func (c *Client) BreakdownSmart(ctx context.Context, thought, projectType, complexity string) (Breakdown, error) {
	const op = "ai.BreakdownSmart"

	if projectType == "" {
		projectType = "general"
	}
	if complexity == "" {
		complexity = "moderate"
	}

	body := map[string]string{
		"thought":          strings.TrimSpace(thought),
		"project_type":     projectType,
		"complexity_level": complexity,
	}

	var resp breakdownResponse
	if err := c.do(ctx, http.MethodPost, "/breakdown-smart", body, &resp); err != nil {
		return Breakdown{}, fmt.Errorf("%s: %w", op, err)
	}

	if resp.Data == nil {
		return Breakdown{}, fmt.Errorf("%s: %w: empty data", op, ErrFailed)
	}

	return *resp.Data, nil
}

// BreakdownNested calls POST /breakdown-nested for one subtask. context is the
// breadcrumb of ancestor titles.
func (c *Client) BreakdownNested(ctx context.Context, parent models.Subtask, breadcrumb string, depth int) ([]models.Subtask, error) {
	const op = "ai.BreakdownNested"

	if depth < 1 {
		depth = 1
	}

	req := nestedRequest{
		ParentTask: ParentTask{
			Title:         parent.Title,
			Description:   parent.Description,
			Difficulty:    parent.Difficulty,
			EstimatedTime: parent.EstimatedTime,
		},
		Context:  breadcrumb,
		Depth:    depth,
		MaxDepth: tasktree.NestedMaxDepth,
	}

	var resp nestedResponse
	if err := c.do(ctx, http.MethodPost, "/breakdown-nested", req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Subtasks, nil
}

// RandomThoughts calls GET /generate-thoughts.
func (c *Client) RandomThoughts(ctx context.Context) ([]string, error) {
	const op = "ai.RandomThoughts"

	var resp thoughtsResponse
	if err := c.do(ctx, http.MethodGet, "/generate-thoughts", nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Thoughts, nil
}

// Health returns the decoded body of GET /health, or an error when the
// service is unreachable or unhealthy.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	const op = "ai.Health"

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: status %d", op, ErrUnavailable, res.StatusCode)
	}

	details := map[string]any{}
	if err := json.NewDecoder(res.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	return details, nil
}

type result interface {
	failure() (bool, string)
}

func (e envelope) failure() (bool, string) {
	return !e.Success, e.Error
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ngrok {
		req.Header.Set("ngrok-skip-browser-warning", "true")
	}

	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out result) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, res.StatusCode, strings.TrimSpace(string(text)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if failed, msg := out.failure(); failed {
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("%w: %s", ErrFailed, msg)
	}

	return nil
}
