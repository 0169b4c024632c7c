// Package mailer turns queued mail messages into SMTP messages.
package mailer

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrUnsupportedType = errors.New("unsupported mail type")

type kind struct {
	subject  string
	template string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeAssignment: {
		subject:  "Migdalor - your work assignment",
		template: "assignment_email.html",
		data:     func() any { return &domain.AssignmentMailData{} },
	},
	domain.MailTypeCreateUser: {
		subject:  "Migdalor - account information",
		template: "new_account_email.html",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
}

type Mailer struct {
	from      string
	templates *template.Template
}

func New(from string) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Mailer{
		from:      from,
		templates: tmpl,
	}, nil
}

// Render returns the subject and HTML body of a mail type.
func (m *Mailer) Render(mailType string, data any) (string, string, error) {
	k, ok := kinds[mailType]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedType, mailType)
	}

	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, k.template, data); err != nil {
		return "", "", err
	}

	return k.subject, buf.String(), nil
}

// Compose decodes a queued message body and builds the mail to send.
func (m *Mailer) Compose(body []byte) (*mail.Msg, error) {
	var envelope struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode mail message: %w", err)
	}

	k, ok := kinds[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, envelope.Type)
	}

	data := k.data()
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return nil, fmt.Errorf("decode %s mail data: %w", envelope.Type, err)
	}

	subject, html, err := m.Render(envelope.Type, data)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, err
	}
	if err := msg.To(envelope.To); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	return msg, nil
}
