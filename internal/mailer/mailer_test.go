package mailer

import (
	"errors"
	"testing"

	"showerlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type senderStub struct {
	sent []*gomail.Message
	err  error
}

func (s *senderStub) DialAndSend(m ...*gomail.Message) error {
	s.sent = append(s.sent, m...)
	return s.err
}

func TestRender(t *testing.T) {
	m := NewWithSender(&senderStub{}, "noreply@showerlog.app")

	tests := []struct {
		purpose string
		link    string
		subject string
	}{
		{purpose: models.PurposeEmailVerification, link: "http://localhost:8080/verify-email?token=abc", subject: "Verify your ShowerLog email"},
		{purpose: models.PurposePasswordReset, link: "http://localhost:8080/reset-password?token=xyz", subject: "Reset your ShowerLog password"},
	}

	for _, tc := range tests {
		t.Run(tc.purpose, func(t *testing.T) {
			subject, body, err := m.render(models.Message{Email: "a@b.c", Link: tc.link, Purpose: tc.purpose})
			require.NoError(t, err)
			assert.Equal(t, tc.subject, subject)
			assert.Contains(t, body, `href="`+tc.link+`"`)
		})
	}
}

func TestRender_UnknownPurpose(t *testing.T) {
	m := NewWithSender(&senderStub{}, "noreply@showerlog.app")

	_, _, err := m.render(models.Message{Email: "a@b.c", Purpose: "newsletter"})
	assert.ErrorIs(t, err, ErrUnknownPurpose)
}

func TestSend(t *testing.T) {
	stub := &senderStub{}
	m := NewWithSender(stub, "noreply@showerlog.app")

	err := m.Send(models.Message{Email: "a@b.c", Link: "http://x/verify-email?token=1", Purpose: models.PurposeEmailVerification})
	require.NoError(t, err)

	require.Len(t, stub.sent, 1)
	assert.Equal(t, []string{"a@b.c"}, stub.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"noreply@showerlog.app"}, stub.sent[0].GetHeader("From"))
}

func TestSend_Failure(t *testing.T) {
	stub := &senderStub{err: errors.New("535 auth failed")}
	m := NewWithSender(stub, "noreply@showerlog.app")

	err := m.Send(models.Message{Email: "a@b.c", Link: "http://x", Purpose: models.PurposePasswordReset})
	assert.Error(t, err)
}

func TestFromOrUser(t *testing.T) {
	assert.Equal(t, "me@x.io", fromOrUser("", "me@x.io"))
	assert.Equal(t, "noreply@x.io", fromOrUser("noreply@x.io", "me@x.io"))
}
