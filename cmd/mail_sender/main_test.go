package main

import (
	"context"
	"errors"
	"testing"

	"showerlog/internal/lib/logger/handlers/slogdiscard"
	"showerlog/internal/mailer"
	"showerlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type senderStub struct {
	sent []*gomail.Message
	err  error
}

func (s *senderStub) DialAndSend(msgs ...*gomail.Message) error {
	s.sent = append(s.sent, msgs...)
	return s.err
}

func TestHandleMessage(t *testing.T) {
	log := slogdiscard.NewDiscardLogger()

	t.Run("sends", func(t *testing.T) {
		sender := &senderStub{}
		h := handleMessage(log, mailer.NewWithSender(sender, "noreply@example.com"))

		err := h(context.Background(), []byte(`{"to":"ann@example.com","link":"http://x/verify-email?token=t","purpose":"`+models.PurposeEmailVerification+`"}`))

		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, []string{"ann@example.com"}, sender.sent[0].GetHeader("To"))
	})

	t.Run("malformed body", func(t *testing.T) {
		sender := &senderStub{}
		h := handleMessage(log, mailer.NewWithSender(sender, "noreply@example.com"))

		assert.Error(t, h(context.Background(), []byte("{")))
		assert.Empty(t, sender.sent)
	})

	t.Run("smtp failure", func(t *testing.T) {
		sender := &senderStub{err: errors.New("connection refused")}
		h := handleMessage(log, mailer.NewWithSender(sender, "noreply@example.com"))

		err := h(context.Background(), []byte(`{"to":"ann@example.com","link":"l","purpose":"`+models.PurposePasswordReset+`"}`))

		assert.Error(t, err)
	})
}
