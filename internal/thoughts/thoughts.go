package thoughts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"showerlog/internal/lib/tasktree"
	sl "showerlog/internal/lib/logger"
	"showerlog/internal/models"
	"showerlog/internal/storage"

	"github.com/google/uuid"
)

const maxOffset = math.MaxInt32

var (
	ErrThoughtNotFound = errors.New("thought not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrEmptyBreakdown  = errors.New("ai returned no subtasks")
)

type Repository interface {
	SaveThought(ctx context.Context, t models.Thought) (models.Thought, error)
	Thoughts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Thought, int, error)
	SavedThoughts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Thought, int, error)
	Thought(ctx context.Context, userID, id uuid.UUID) (models.Thought, error)
	DeleteThought(ctx context.Context, userID, id uuid.UUID) error
	ToggleSaved(ctx context.Context, userID, id uuid.UUID) (bool, error)
	UpdateSubtasks(ctx context.Context, userID, id uuid.UUID, subtasks []models.Subtask) error
}

// Breakdowner decomposes a single subtask; *ai.Client implements it.
type Breakdowner interface {
	BreakdownNested(ctx context.Context, parent models.Subtask, breadcrumb string, depth int) ([]models.Subtask, error)
}

type Service struct {
	log  *slog.Logger
	repo Repository
	ai   Breakdowner
}

func New(log *slog.Logger, repo Repository, ai Breakdowner) *Service {
	return &Service{
		log:  log,
		repo: repo,
		ai:   ai,
	}
}

type NewThought struct {
	Content  string
	Subtasks []models.Subtask
	AIData   *models.AIData
	IsSaved  bool
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in NewThought) (models.Thought, error) {
	const op = "thoughts.Create"

	if err := tasktree.Validate(in.Subtasks); err != nil {
		return models.Thought{}, err
	}
	if err := tasktree.UniqueIDs(in.Subtasks); err != nil {
		return models.Thought{}, err
	}
	if in.AIData != nil {
		if err := tasktree.Validate(in.AIData.Subtasks); err != nil {
			return models.Thought{}, err
		}
	}

	t, err := s.repo.SaveThought(ctx, models.Thought{
		UserID:   userID,
		Content:  in.Content,
		Subtasks: in.Subtasks,
		AIData:   in.AIData,
		IsSaved:  in.IsSaved,
	})
	if err != nil {
		s.log.Error("failed to save thought", slog.String("op", op), sl.Err(err))
		return models.Thought{}, fmt.Errorf("%s: %w", op, err)
	}

	t.Progress = tasktree.ListProgress(t.Subtasks)

	return t, nil
}

// List returns the given page of the user's thoughts, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Thought, models.Pagination, error) {
	const op = "thoughts.List"

	list, total, err := s.repo.Thoughts(ctx, userID, limit, offset(page, limit))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}

	return annotate(list), pagination(page, limit, total), nil
}

// Saved returns the given page of saved thoughts, most recently saved first.
func (s *Service) Saved(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Thought, models.Pagination, error) {
	const op = "thoughts.Saved"

	list, total, err := s.repo.SavedThoughts(ctx, userID, limit, offset(page, limit))
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}

	return annotate(list), pagination(page, limit, total), nil
}

func annotate(list []models.Thought) []models.Thought {
	for i := range list {
		list[i].Progress = tasktree.ListProgress(list[i].Subtasks)
	}

	return list
}

// offset is the row offset of page. Pages past the largest representable
// offset clamp to it, which yields an empty page.
func offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > maxOffset/limit {
		return maxOffset
	}

	return (page - 1) * limit
}

func pagination(page, limit, total int) models.Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return models.Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const op = "thoughts.Delete"

	if err := s.repo.DeleteThought(ctx, userID, id); err != nil {
		return mapNotFound(op, err)
	}

	return nil
}

func (s *Service) ToggleSaved(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	const op = "thoughts.ToggleSaved"

	saved, err := s.repo.ToggleSaved(ctx, userID, id)
	if err != nil {
		return false, mapNotFound(op, err)
	}

	return saved, nil
}

// SetSubtaskCompleted updates one node anywhere in the tree and rewrites the
// whole collection.
func (s *Service) SetSubtaskCompleted(ctx context.Context, userID, id uuid.UUID, subtaskID int64, completed bool) (models.Thought, error) {
	const op = "thoughts.SetSubtaskCompleted"

	t, err := s.repo.Thought(ctx, userID, id)
	if err != nil {
		return models.Thought{}, mapNotFound(op, err)
	}

	if !tasktree.SetCompleted(t.Subtasks, subtaskID, completed) {
		return models.Thought{}, ErrSubtaskNotFound
	}

	if err := s.repo.UpdateSubtasks(ctx, userID, id, t.Subtasks); err != nil {
		return models.Thought{}, mapNotFound(op, err)
	}

	t.Progress = tasktree.ListProgress(t.Subtasks)

	return t, nil
}

// BreakdownSubtask asks the AI to split an eligible leaf and stores the
// result as its children.
func (s *Service) BreakdownSubtask(ctx context.Context, userID, id uuid.UUID, subtaskID int64) (models.Subtask, error) {
	const op = "thoughts.BreakdownSubtask"

	log := s.log.With(slog.String("op", op))

	t, err := s.repo.Thought(ctx, userID, id)
	if err != nil {
		return models.Subtask{}, mapNotFound(op, err)
	}

	node, depth, ancestors := tasktree.Locate(t.Subtasks, subtaskID)
	if node == nil {
		return models.Subtask{}, ErrSubtaskNotFound
	}
	if len(node.Subtasks) > 0 {
		return models.Subtask{}, tasktree.ErrHasChildren
	}
	if depth >= tasktree.MaxDepth {
		return models.Subtask{}, tasktree.ErrDepthExceeded
	}
	if !tasktree.CanBreakdown(*node, depth) {
		return models.Subtask{}, tasktree.ErrNotEligible
	}

	children, err := s.ai.BreakdownNested(ctx, *node, tasktree.Breadcrumb(ancestors, node.Title), depth+1)
	if err != nil {
		log.Error("ai breakdown failed", sl.Err(err))
		return models.Subtask{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(children) == 0 {
		return models.Subtask{}, ErrEmptyBreakdown
	}

	if err := tasktree.Attach(node, depth, children, tasktree.MaxID(t.Subtasks)+1); err != nil {
		return models.Subtask{}, err
	}

	if err := s.repo.UpdateSubtasks(ctx, userID, id, t.Subtasks); err != nil {
		return models.Subtask{}, mapNotFound(op, err)
	}

	log.Info("subtask broken down", slog.Int64("subtask_id", subtaskID), slog.Int("children", len(children)))

	return *node, nil
}

func mapNotFound(op string, err error) error {
	if errors.Is(err, storage.ErrThoughtNotFound) {
		return ErrThoughtNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}
