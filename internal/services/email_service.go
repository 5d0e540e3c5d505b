package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"go.uber.org/zap"

	"github.com/hoaxify/hoaxify/pkg/logger"
	"github.com/hoaxify/hoaxify/pkg/mail"
	"github.com/hoaxify/hoaxify/pkg/metrics"
)

var (
	activationTemplate = template.Must(template.New("activation").Parse(
		`<h1>Account Activation</h1>` +
			`<p>Token is {{.Token}}</p>` +
			`{{if .Link}}<p><a href="{{.Link}}">Activate your account</a></p>{{end}}`))

	passwordResetTemplate = template.Must(template.New("password_reset").Parse(
		`<h1>Password Reset</h1>` +
			`<p>Token is {{.Token}}</p>` +
			`{{if .Link}}<p><a href="{{.Link}}">Reset your password</a></p>{{end}}`))

	activationText = texttemplate.Must(texttemplate.New("activation").Parse(
		"Account Activation\n\nToken is {{.Token}}\n{{if .Link}}\nActivate your account: {{.Link}}\n{{end}}"))

	passwordResetText = texttemplate.Must(texttemplate.New("password_reset").Parse(
		"Password Reset\n\nToken is {{.Token}}\n{{if .Link}}\nReset your password: {{.Link}}\n{{end}}"))
)

type emailTemplate struct {
	subject string
	html    *template.Template
	text    *texttemplate.Template
}

var (
	activationEmail    = emailTemplate{"Account Activation", activationTemplate, activationText}
	passwordResetEmail = emailTemplate{"Password Reset", passwordResetTemplate, passwordResetText}
)

// EmailOption customises the EmailService.
type EmailOption func(*EmailService)

// WithEmailBaseURL sets the client URL used to build links in emails.
func WithEmailBaseURL(url string) EmailOption {
	return func(s *EmailService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// WithEmailFrom overrides the sender address.
func WithEmailFrom(from string) EmailOption {
	return func(s *EmailService) {
		if from = strings.TrimSpace(from); from != "" {
			s.from = from
		}
	}
}

// EmailService renders and sends account emails.
type EmailService struct {
	mailer  mail.Mailer
	from    string
	baseURL string
	logger  *zap.Logger
}

// NewEmailService constructs an email service. A nil mailer or a disabled SMTP
// mailer logs messages instead of delivering them.
func NewEmailService(mailer mail.Mailer, opts ...EmailOption) *EmailService {
	service := &EmailService{
		mailer: mailer,
		logger: logger.WithModule("email"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// SendAccountActivation emails the activation token to a new user.
func (s *EmailService) SendAccountActivation(ctx context.Context, email, token string) error {
	return s.send(ctx, "activation", email, activationEmail, token, s.link("/activate/", token))
}

// SendPasswordReset emails the password reset token.
func (s *EmailService) SendPasswordReset(ctx context.Context, email, token string) error {
	return s.send(ctx, "password_reset", email, passwordResetEmail, token, s.link("/password-reset/update?reset=", token))
}

func (s *EmailService) link(path, token string) string {
	if s.baseURL == "" {
		return ""
	}
	return s.baseURL + path + token
}

func (s *EmailService) send(ctx context.Context, kind, email string, tmpl emailTemplate, token, link string) error {
	data := struct{ Token, Link string }{token, link}

	var html, text bytes.Buffer
	if err := tmpl.html.Execute(&html, data); err != nil {
		return fmt.Errorf("email service: render %s: %w", kind, err)
	}
	if err := tmpl.text.Execute(&text, data); err != nil {
		return fmt.Errorf("email service: render %s text: %w", kind, err)
	}

	if s.mailer == nil {
		metrics.EmailDeliveries.WithLabelValues(kind, "disabled").Inc()
		s.logger.Info("mailer not configured, skipping email", zap.String("template", kind), zap.String("to", email))
		return nil
	}

	err := s.mailer.Send(ctx, mail.Message{
		From:    s.from,
		To:      []string{email},
		Subject: tmpl.subject,
		Text:    text.String(),
		HTML:    html.String(),
	})
	switch {
	case err == nil:
		metrics.EmailDeliveries.WithLabelValues(kind, "success").Inc()
		return nil
	case errors.Is(err, mail.ErrSMTPDisabled):
		metrics.EmailDeliveries.WithLabelValues(kind, "disabled").Inc()
		s.logger.Info("smtp disabled, skipping email", zap.String("template", kind), zap.String("to", email))
		return nil
	default:
		metrics.EmailDeliveries.WithLabelValues(kind, "failure").Inc()
		s.logger.Warn("send email", zap.String("template", kind), zap.String("to", email), zap.Error(err))
		return fmt.Errorf("email service: send %s: %w", kind, err)
	}
}
