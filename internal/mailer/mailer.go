package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"showerlog/internal/models"

	"gopkg.in/gomail.v2"
)

var ErrUnknownPurpose = errors.New("unknown message purpose")

// Sender delivers composed messages; *gomail.Dialer implements it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender    Sender
	from      string
	templates map[string]letter
}

type letter struct {
	subject string
	body    *template.Template
}

func New(host string, port int, username, password, from string) *Mailer {
	return NewWithSender(gomail.NewDialer(host, port, username, password), fromOrUser(from, username))
}

func NewWithSender(sender Sender, from string) *Mailer {
	return &Mailer{
		sender: sender,
		from:   from,
		templates: map[string]letter{
			models.PurposeEmailVerification: {
				subject: "Verify your ShowerLog email",
				body:    template.Must(template.New("verify").Parse(verifyTemplate)),
			},
			models.PurposePasswordReset: {
				subject: "Reset your ShowerLog password",
				body:    template.Must(template.New("reset").Parse(resetTemplate)),
			},
		},
	}
}

func fromOrUser(from, username string) string {
	if from != "" {
		return from
	}

	return username
}

// Send renders the template for msg.Purpose and sends it to msg.Email.
func (m *Mailer) Send(msg models.Message) error {
	const op = "mailer.Send"

	subject, body, err := m.render(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.Email)
	gm.SetHeader("Subject", subject)
	gm.SetBody("text/html", body)

	if err := m.sender.DialAndSend(gm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Mailer) render(msg models.Message) (string, string, error) {
	l, ok := m.templates[msg.Purpose]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownPurpose, msg.Purpose)
	}

	var buf bytes.Buffer
	if err := l.body.Execute(&buf, msg); err != nil {
		return "", "", err
	}

	return l.subject, buf.String(), nil
}

const verifyTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>Welcome to ShowerLog</h2>
  <p>Confirm your email address to start capturing your thoughts.</p>
  <p><a href="{{.Link}}">Verify email</a></p>
  <p>If the button does not work, open this link: {{.Link}}</p>
</body>
</html>`

const resetTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>Password reset</h2>
  <p>Someone asked to reset the password for your ShowerLog account. The link is valid for one hour.</p>
  <p><a href="{{.Link}}">Choose a new password</a></p>
  <p>If you did not request this, you can ignore this email.</p>
</body>
</html>`
