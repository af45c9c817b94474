package verification

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	sl "showerlog/internal/lib/logger"
	"showerlog/internal/models"

	"github.com/google/uuid"
)

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// NewToken returns an opaque single-use token.
func NewToken() string {
	return uuid.NewString()
}

func VerifyLink(appURL, token string) string {
	return link(appURL, "/verify-email", token)
}

func ResetLink(appURL, token string) string {
	return link(appURL, "/reset-password", token)
}

func link(appURL, path, token string) string {
	return strings.TrimRight(appURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// VerifyUserEmail publishes the verification email. Publish failures are
// logged and reported as false; they never fail the caller's request.
func VerifyUserEmail(ctx context.Context, log *slog.Logger, pub Publisher, appURL, email, token string) bool {
	return publish(ctx, log, pub, models.Message{
		Email:   email,
		Link:    VerifyLink(appURL, token),
		Purpose: models.PurposeEmailVerification,
	})
}

// ResetUserPassword publishes the password reset email.
func ResetUserPassword(ctx context.Context, log *slog.Logger, pub Publisher, appURL, email, token string) bool {
	return publish(ctx, log, pub, models.Message{
		Email:   email,
		Link:    ResetLink(appURL, token),
		Purpose: models.PurposePasswordReset,
	})
}

func publish(ctx context.Context, log *slog.Logger, pub Publisher, msg models.Message) bool {
	if err := pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish email",
			slog.String("purpose", msg.Purpose),
			sl.Err(err),
		)

		return false
	}

	return true
}
