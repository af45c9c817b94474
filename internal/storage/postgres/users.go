package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showerlog/internal/models"
	"showerlog/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, name, password_hash, email_verified, email_verification_token,
	password_reset_token, password_reset_expires, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var (
		u    models.User
		hash string
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&hash,
		&u.EmailVerified,
		&u.VerificationToken,
		&u.ResetToken,
		&u.ResetExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	u.PassHash = []byte(hash)

	return u, nil
}

// SaveUser creates an unverified user holding the given verification token.
func (r *PostgresRepo) SaveUser(ctx context.Context, email string, name *string, passHash []byte, verificationToken string) (uuid.UUID, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (email, name, password_hash, email_verification_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id uuid.UUID

	err := r.db.QueryRow(ctx, query, email, name, string(passHash), verificationToken).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) User(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.User"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "storage.postgres.UserExists"

	var exists bool

	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *PostgresRepo) UserByVerificationToken(ctx context.Context, token string) (models.User, error) {
	const op = "storage.postgres.UserByVerificationToken"

	query := `SELECT ` + userColumns + ` FROM users WHERE email_verification_token = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserByResetToken(ctx context.Context, token string) (models.User, error) {
	const op = "storage.postgres.UserByResetToken"

	query := `SELECT ` + userColumns + ` FROM users WHERE password_reset_token = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// SetEmailVerified marks the user verified and consumes the verification token.
func (r *PostgresRepo) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.SetEmailVerified"

	query := `
		UPDATE users
		SET email_verified = TRUE, email_verification_token = NULL, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, op, storage.ErrUserNotFound, query, id)
}

func (r *PostgresRepo) SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	const op = "storage.postgres.SetVerificationToken"

	query := `UPDATE users SET email_verification_token = $2, updated_at = NOW() WHERE id = $1`

	return r.execOne(ctx, op, storage.ErrUserNotFound, query, id, token)
}

func (r *PostgresRepo) SaveResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	const op = "storage.postgres.SaveResetToken"

	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, op, storage.ErrUserNotFound, query, id, token, expires)
}

// ResetPassword replaces the hash and consumes the reset token.
func (r *PostgresRepo) ResetPassword(ctx context.Context, id uuid.UUID, passHash []byte) error {
	const op = "storage.postgres.ResetPassword"

	query := `
		UPDATE users
		SET password_hash = $2, password_reset_token = NULL, password_reset_expires = NULL, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, op, storage.ErrUserNotFound, query, id, string(passHash))
}

func (r *PostgresRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passHash []byte) error {
	const op = "storage.postgres.UpdatePassword"

	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	return r.execOne(ctx, op, storage.ErrUserNotFound, query, id, string(passHash))
}

func (r *PostgresRepo) UpdateName(ctx context.Context, id uuid.UUID, name *string) (models.User, error) {
	const op = "storage.postgres.UpdateName"

	query := `UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, id, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// DeleteUser removes the user together with saved thoughts and thoughts.
func (r *PostgresRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteUser"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM saved_thoughts WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM thoughts WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) execOne(ctx context.Context, op string, notFound error, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}

	return nil
}
