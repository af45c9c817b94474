package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"showerlog/internal/models"
	"showerlog/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const thoughtColumns = `t.id, t.user_id, t.content, t.subtasks, t.ai_data, t.is_saved, t.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThought(row rowScanner, extra ...any) (models.Thought, error) {
	var (
		t        models.Thought
		subtasks []byte
		aiData   []byte
	)

	dest := append([]any{&t.ID, &t.UserID, &t.Content, &subtasks, &aiData, &t.IsSaved, &t.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Thought{}, err
	}

	if len(subtasks) > 0 {
		if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
			return models.Thought{}, fmt.Errorf("decode subtasks: %w", err)
		}
	}
	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}

	if len(aiData) > 0 && string(aiData) != "null" {
		t.AIData = &models.AIData{}
		if err := json.Unmarshal(aiData, t.AIData); err != nil {
			return models.Thought{}, fmt.Errorf("decode ai data: %w", err)
		}
	}

	return t, nil
}

func encodeSubtasks(list []models.Subtask) ([]byte, error) {
	if list == nil {
		list = []models.Subtask{}
	}

	return json.Marshal(list)
}

// SaveThought inserts t for t.UserID and returns it with id and creation time set.
func (r *PostgresRepo) SaveThought(ctx context.Context, t models.Thought) (models.Thought, error) {
	const op = "storage.postgres.SaveThought"

	subtasks, err := encodeSubtasks(t.Subtasks)
	if err != nil {
		return models.Thought{}, fmt.Errorf("%s: %w", op, err)
	}

	var aiData []byte
	if t.AIData != nil {
		if aiData, err = json.Marshal(t.AIData); err != nil {
			return models.Thought{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Thought{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO thoughts (user_id, content, subtasks, ai_data, is_saved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = tx.QueryRow(ctx, query, t.UserID, t.Content, subtasks, aiData, t.IsSaved).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return models.Thought{}, fmt.Errorf("%s: %w", op, err)
	}

	if t.IsSaved {
		_, err = tx.Exec(ctx, `
			INSERT INTO saved_thoughts (user_id, thought_id) VALUES ($1, $2)
			ON CONFLICT (user_id, thought_id) DO NOTHING`, t.UserID, t.ID)
		if err != nil {
			return models.Thought{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Thought{}, fmt.Errorf("%s: %w", op, err)
	}

	if t.Subtasks == nil {
		t.Subtasks = []models.Subtask{}
	}

	return t, nil
}

// Thoughts returns one page of the user's thoughts, newest first, and the total count.
func (r *PostgresRepo) Thoughts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Thought, int, error) {
	const op = "storage.postgres.Thoughts"

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM thoughts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT ` + thoughtColumns + `
		FROM thoughts t
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	thoughts := make([]models.Thought, 0, limit)
	for rows.Next() {
		t, err := scanThought(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		thoughts = append(thoughts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return thoughts, total, nil
}

// SavedThoughts returns one page of saved thoughts ordered by save time.
func (r *PostgresRepo) SavedThoughts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Thought, int, error) {
	const op = "storage.postgres.SavedThoughts"

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM saved_thoughts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT ` + thoughtColumns + `, s.saved_at
		FROM saved_thoughts s
		JOIN thoughts t ON t.id = s.thought_id
		WHERE s.user_id = $1
		ORDER BY s.saved_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	thoughts := make([]models.Thought, 0, limit)
	for rows.Next() {
		var savedAt time.Time

		t, err := scanThought(rows, &savedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		t.SavedAt = &savedAt
		thoughts = append(thoughts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return thoughts, total, nil
}

func (r *PostgresRepo) Thought(ctx context.Context, userID, id uuid.UUID) (models.Thought, error) {
	const op = "storage.postgres.Thought"

	query := `SELECT ` + thoughtColumns + ` FROM thoughts t WHERE t.id = $1 AND t.user_id = $2`

	t, err := scanThought(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Thought{}, fmt.Errorf("%s: %w", op, storage.ErrThoughtNotFound)
		}
		return models.Thought{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

func (r *PostgresRepo) DeleteThought(ctx context.Context, userID, id uuid.UUID) error {
	const op = "storage.postgres.DeleteThought"

	return r.execOne(ctx, op, storage.ErrThoughtNotFound,
		`DELETE FROM thoughts WHERE id = $1 AND user_id = $2`, id, userID)
}

// ToggleSaved flips the saved state of the thought and reports the new state.
func (r *PostgresRepo) ToggleSaved(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	const op = "storage.postgres.ToggleSaved"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	var saved bool

	err = tx.QueryRow(ctx, `SELECT is_saved FROM thoughts WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID).Scan(&saved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", op, storage.ErrThoughtNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if saved {
		if _, err := tx.Exec(ctx, `DELETE FROM saved_thoughts WHERE user_id = $1 AND thought_id = $2`, userID, id); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		_, err := tx.Exec(ctx, `
			INSERT INTO saved_thoughts (user_id, thought_id) VALUES ($1, $2)
			ON CONFLICT (user_id, thought_id) DO NOTHING`, userID, id)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE thoughts SET is_saved = $2 WHERE id = $1`, id, !saved); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return !saved, nil
}

// UpdateSubtasks rewrites the whole subtask collection of an owned thought.
func (r *PostgresRepo) UpdateSubtasks(ctx context.Context, userID, id uuid.UUID, subtasks []models.Subtask) error {
	const op = "storage.postgres.UpdateSubtasks"

	data, err := encodeSubtasks(subtasks)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return r.execOne(ctx, op, storage.ErrThoughtNotFound,
		`UPDATE thoughts SET subtasks = $3 WHERE id = $1 AND user_id = $2`, id, userID, data)
}
