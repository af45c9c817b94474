package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"showerlog/internal/lib/jwt"
	"showerlog/internal/lib/logger/handlers/slogdiscard"
	"showerlog/internal/lib/password"
	"showerlog/internal/models"
	"showerlog/internal/storage/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const appURL = "http://localhost:8080"

type publisherStub struct {
	sent []models.Message
	err  error
}

func (p *publisherStub) SendMessage(_ context.Context, msg models.Message) error {
	p.sent = append(p.sent, msg)
	return p.err
}

func (p *publisherStub) last(t *testing.T) models.Message {
	t.Helper()
	require.NotEmpty(t, p.sent)
	return p.sent[len(p.sent)-1]
}

type suite struct {
	auth  *Auth
	store *memory.Storage
	pub   *publisherStub
	codec *jwt.Codec
}

func newSuite(t *testing.T) *suite {
	t.Helper()

	codec, err := jwt.New("test-secret", time.Hour)
	require.NoError(t, err)

	store := memory.New()
	pub := &publisherStub{}

	a := New(
		slogdiscard.NewDiscardLogger(),
		store,
		store,
		password.New(bcrypt.MinCost),
		codec,
		pub,
		appURL,
	)

	return &suite{auth: a, store: store, pub: pub, codec: codec}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()

	i := strings.Index(link, "token=")
	require.GreaterOrEqual(t, i, 0)

	return link[i+len("token="):]
}

func (s *suite) registerVerified(t *testing.T, email, pass string) uuid.UUID {
	t.Helper()

	ctx := context.Background()

	id, err := s.auth.RegisterNewUser(ctx, email, "Ann", pass)
	require.NoError(t, err)
	require.NoError(t, s.auth.VerifyEmail(ctx, tokenFromLink(t, s.pub.last(t).Link)))

	return id
}

func TestRegisterNewUser(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()

	id, err := s.auth.RegisterNewUser(ctx, "a@b.c", "  Ann  ", "secret1")
	require.NoError(t, err)

	u, err := s.store.UserByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, u.EmailVerified)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Ann", *u.Name)
	assert.NotEqual(t, []byte("secret1"), u.PassHash)

	require.NotNil(t, u.VerificationToken)
	_, err = uuid.Parse(*u.VerificationToken)
	assert.NoError(t, err)

	msg := s.pub.last(t)
	assert.Equal(t, "a@b.c", msg.Email)
	assert.Equal(t, models.PurposeEmailVerification, msg.Purpose)
	assert.Equal(t, appURL+"/verify-email?token="+*u.VerificationToken, msg.Link)

	_, err = s.auth.RegisterNewUser(ctx, "a@b.c", "Other", "secret2")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterNewUser_PublishFailureIsNotFatal(t *testing.T) {
	s := newSuite(t)
	s.pub.err = errors.New("broker down")

	_, err := s.auth.RegisterNewUser(context.Background(), "a@b.c", "Ann", "secret1")
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()

	id, err := s.auth.RegisterNewUser(ctx, "a@b.c", "Ann", "secret1")
	require.NoError(t, err)

	_, _, err = s.auth.Login(ctx, "a@b.c", "secret1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	// unverified is reported even with a wrong password
	_, _, err = s.auth.Login(ctx, "a@b.c", "wrong-password")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, s.auth.VerifyEmail(ctx, tokenFromLink(t, s.pub.last(t).Link)))

	token, user, err := s.auth.Login(ctx, "a@b.c", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	userID, err := s.codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), userID)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	s.registerVerified(t, "a@b.c", "secret1")

	_, _, errWrong := s.auth.Login(ctx, "a@b.c", "nope-nope")
	_, _, errUnknown := s.auth.Login(ctx, "ghost@b.c", "nope-nope")

	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestVerifyEmail(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()

	_, err := s.auth.RegisterNewUser(ctx, "a@b.c", "Ann", "secret1")
	require.NoError(t, err)
	token := tokenFromLink(t, s.pub.last(t).Link)

	assert.ErrorIs(t, s.auth.VerifyEmail(ctx, ""), ErrInvalidToken)
	assert.ErrorIs(t, s.auth.VerifyEmail(ctx, "bogus"), ErrInvalidToken)

	require.NoError(t, s.auth.VerifyEmail(ctx, token))

	u, err := s.store.User(ctx, "a@b.c")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Nil(t, u.VerificationToken)

	// the token is single use
	assert.ErrorIs(t, s.auth.VerifyEmail(ctx, token), ErrInvalidToken)
}

func TestResendVerification(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()

	_, err := s.auth.RegisterNewUser(ctx, "a@b.c", "Ann", "secret1")
	require.NoError(t, err)
	first := tokenFromLink(t, s.pub.last(t).Link)

	require.NoError(t, s.auth.ResendVerification(ctx, "a@b.c"))
	require.Len(t, s.pub.sent, 2)
	second := tokenFromLink(t, s.pub.last(t).Link)
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, s.auth.VerifyEmail(ctx, first), ErrInvalidToken)
	require.NoError(t, s.auth.VerifyEmail(ctx, second))

	require.NoError(t, s.auth.ResendVerification(ctx, "a@b.c"))
	require.NoError(t, s.auth.ResendVerification(ctx, "ghost@b.c"))
	assert.Len(t, s.pub.sent, 2)
}

func TestForgotAndResetPassword(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	s.registerVerified(t, "a@b.c", "secret1")

	require.NoError(t, s.auth.ForgotPassword(ctx, "ghost@b.c"))
	require.Len(t, s.pub.sent, 1)

	require.NoError(t, s.auth.ForgotPassword(ctx, "a@b.c"))
	msg := s.pub.last(t)
	assert.Equal(t, models.PurposePasswordReset, msg.Purpose)
	assert.True(t, strings.HasPrefix(msg.Link, appURL+"/reset-password?token="))
	token := tokenFromLink(t, msg.Link)

	u, err := s.store.User(ctx, "a@b.c")
	require.NoError(t, err)
	require.NotNil(t, u.ResetExpires)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), *u.ResetExpires, 5*time.Second)

	assert.ErrorIs(t, s.auth.ResetPassword(ctx, "bogus", "newpass1"), ErrInvalidToken)
	require.NoError(t, s.auth.ResetPassword(ctx, token, "newpass1"))

	_, _, err = s.auth.Login(ctx, "a@b.c", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = s.auth.Login(ctx, "a@b.c", "newpass1")
	assert.NoError(t, err)

	assert.ErrorIs(t, s.auth.ResetPassword(ctx, token, "again123"), ErrInvalidToken)
}

func TestForgotPassword_PublishFailureIsSwallowed(t *testing.T) {
	s := newSuite(t)
	s.registerVerified(t, "a@b.c", "secret1")
	s.pub.err = errors.New("broker down")

	assert.NoError(t, s.auth.ForgotPassword(context.Background(), "a@b.c"))
}

func TestResetPassword_Expired(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	s.registerVerified(t, "a@b.c", "secret1")

	require.NoError(t, s.auth.ForgotPassword(ctx, "a@b.c"))
	token := tokenFromLink(t, s.pub.last(t).Link)

	s.auth.now = func() time.Time { return time.Now().Add(ResetTokenTTL + time.Minute) }

	assert.ErrorIs(t, s.auth.ResetPassword(ctx, token, "newpass1"), ErrTokenExpired)
}

func TestChangePassword(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	id := s.registerVerified(t, "a@b.c", "secret1")

	assert.ErrorIs(t, s.auth.ChangePassword(ctx, id, "wrong", "newpass1"), ErrInvalidCredentials)
	require.NoError(t, s.auth.ChangePassword(ctx, id, "secret1", "newpass1"))

	_, _, err := s.auth.Login(ctx, "a@b.c", "newpass1")
	assert.NoError(t, err)

	assert.ErrorIs(t, s.auth.ChangePassword(ctx, uuid.New(), "x", "y"), ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	id := s.registerVerified(t, "a@b.c", "secret1")

	u, err := s.auth.UpdateProfile(ctx, id, "  Bob ")
	require.NoError(t, err)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Bob", *u.Name)

	u, err = s.auth.UpdateProfile(ctx, id, "   ")
	require.NoError(t, err)
	assert.Nil(t, u.Name)

	_, err = s.auth.UpdateProfile(ctx, id, strings.Repeat("x", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = s.auth.UpdateProfile(ctx, id, strings.Repeat("x", MaxNameLength))
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	s := newSuite(t)
	ctx := context.Background()
	id := s.registerVerified(t, "a@b.c", "secret1")

	_, err := s.store.SaveThought(ctx, models.Thought{UserID: id, Content: "x", IsSaved: true})
	require.NoError(t, err)

	require.NoError(t, s.auth.DeleteAccount(ctx, id))

	ok, err := s.auth.UserExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	list, total, err := s.store.SavedThoughts(ctx, id, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	assert.ErrorIs(t, s.auth.DeleteAccount(ctx, id), ErrUserNotFound)
}
