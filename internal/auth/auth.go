package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	sl "showerlog/internal/lib/logger"
	"showerlog/internal/lib/verification"
	"showerlog/internal/models"
	"showerlog/internal/storage"

	"github.com/google/uuid"
)

const (
	ResetTokenTTL = time.Hour
	MaxNameLength = 255
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenExpired       = errors.New("token expired")
	ErrNameTooLong        = errors.New("name is too long")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	hasher      PasswordHasher
	tokens      TokenIssuer
	publisher   verification.Publisher
	appURL      string
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

type UserSaver interface {
	SaveUser(ctx context.Context, email string, name *string, passHash []byte, verificationToken string) (uuid.UUID, error)
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error
	SaveResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, passHash []byte) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passHash []byte) error
	UpdateName(ctx context.Context, id uuid.UUID, name *string) (models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	UserByVerificationToken(ctx context.Context, token string) (models.User, error)
	UserByResetToken(ctx context.Context, token string) (models.User, error)
}

type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, hash []byte) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	hasher PasswordHasher,
	tokens TokenIssuer,
	publisher verification.Publisher,
	appURL string,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		hasher:      hasher,
		tokens:      tokens,
		publisher:   publisher,
		appURL:      appURL,
		now:         time.Now,
	}
}

// RegisterNewUser creates an unverified user and publishes the verification email.
func (a *Auth) RegisterNewUser(ctx context.Context, email, name, pass string) (uuid.UUID, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("registering new user")

	passHash, err := a.hasher.Hash(pass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	token := verification.NewToken()

	id, err := a.usrSaver.SaveUser(ctx, email, normalizeName(name), passHash, token)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		log.Error("failed to save user", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	verification.VerifyUserEmail(ctx, log, a.publisher, a.appURL, email, token)

	log.Info("user registered", slog.String("uid", id.String()))

	return id, nil
}

// Login checks the credentials and returns a session token. An unverified
// account is rejected before the password is checked.
func (a *Auth) Login(ctx context.Context, email, pass string) (string, models.User, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			a.hasher.Verify(pass, a.dummy())
			log.Info("user not found")
			return "", models.User{}, ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return "", models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !user.EmailVerified {
		return "", models.User{}, ErrEmailNotVerified
	}

	if !a.hasher.Verify(pass, user.PassHash) {
		log.Info("invalid credentials")
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(user.ID.String())
	if err != nil {
		log.Error("failed to issue session token", sl.Err(err))
		return "", models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("uid", user.ID.String()))

	return token, user, nil
}

// dummy is compared against when the email is unknown so both failure paths
// cost one bcrypt comparison.
func (a *Auth) dummy() []byte {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("showerlog-dummy-password")
		if err == nil {
			a.dummyHash = hash
		}
	})

	return a.dummyHash
}

func (a *Auth) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	if token == "" {
		return ErrInvalidToken
	}

	user, err := a.usrProvider.UserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Info("verification token not found")
			return ErrInvalidToken
		}

		log.Error("failed to find verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	if err := a.usrSaver.SetEmailVerified(ctx, user.ID); err != nil {
		log.Error("failed to set email verified", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("uid", user.ID.String()))

	return nil
}

// ResendVerification issues a fresh verification token for an existing,
// unverified account. Unknown and verified emails are silently ignored.
func (a *Auth) ResendVerification(ctx context.Context, email string) error {
	const op = "auth.ResendVerification"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.EmailVerified {
		return nil
	}

	token := verification.NewToken()

	if err := a.usrSaver.SetVerificationToken(ctx, user.ID, token); err != nil {
		log.Error("failed to save verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	verification.VerifyUserEmail(ctx, log, a.publisher, a.appURL, user.Email, token)

	return nil
}

// ForgotPassword stores a reset token valid for ResetTokenTTL and publishes
// the reset email. It reports nothing about whether the account exists.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if !user.EmailVerified {
		log.Info("password reset requested for unverified account")
		return nil
	}

	token := verification.NewToken()

	if err := a.usrSaver.SaveResetToken(ctx, user.ID, token, a.now().Add(ResetTokenTTL)); err != nil {
		log.Error("failed to save reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	verification.ResetUserPassword(ctx, log, a.publisher, a.appURL, user.Email, token)

	return nil
}

func (a *Auth) ResetPassword(ctx context.Context, token, newPass string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	if token == "" {
		return ErrInvalidToken
	}

	user, err := a.usrProvider.UserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return ErrInvalidToken
		}

		log.Error("failed to find reset token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.ResetExpires == nil || a.now().After(*user.ResetExpires) {
		return ErrTokenExpired
	}

	passHash, err := a.hasher.Hash(newPass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.ResetPassword(ctx, user.ID, passHash); err != nil {
		log.Error("failed to reset password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.String("uid", user.ID.String()))

	return nil
}

func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPass string) error {
	const op = "auth.ChangePassword"

	log := a.log.With(slog.String("op", op))

	user, err := a.User(ctx, userID)
	if err != nil {
		return err
	}

	if !a.hasher.Verify(current, user.PassHash) {
		return ErrInvalidCredentials
	}

	passHash, err := a.hasher.Hash(newPass)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.UpdatePassword(ctx, userID, passHash); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateProfile trims name and stores it, or clears it when empty.
func (a *Auth) UpdateProfile(ctx context.Context, userID uuid.UUID, name string) (models.User, error) {
	const op = "auth.UpdateProfile"

	log := a.log.With(slog.String("op", op))

	trimmed := normalizeName(name)
	if trimmed != nil && utf8.RuneCountInString(*trimmed) > MaxNameLength {
		return models.User{}, ErrNameTooLong
	}

	user, err := a.usrSaver.UpdateName(ctx, userID, trimmed)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		log.Error("failed to update name", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// DeleteAccount removes the user and everything they own.
func (a *Auth) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	const op = "auth.DeleteAccount"

	log := a.log.With(slog.String("op", op))

	if err := a.usrSaver.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}

		log.Error("failed to delete user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account deleted", slog.String("uid", userID.String()))

	return nil
}

func (a *Auth) User(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "auth.User"

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserExists backs the session existence check.
func (a *Auth) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	const op = "auth.UserExists"

	ok, err := a.usrProvider.UserExists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

func normalizeName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	return &name
}
