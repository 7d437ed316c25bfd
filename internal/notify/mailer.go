// Package notify delivers user notifications by mail and on the event bus.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/weiawesome/wes-io-live/profile-service/internal/config"
	pkglog "github.com/weiawesome/wes-io-live/profile-service/pkg/log"
)

const (
	confirmationSubject = "Confirm your email"
	confirmationBody    = "Please confirm your email by clicking on the link"
)

// Mailer sends transactional mail.
type Mailer interface {
	SendConfirmation(ctx context.Context, email string) error
}

// sender is the part of *mail.Client used by SMTPMailer.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	client sender
	from   string
	logger zerolog.Logger
}

// NewMailer builds the mailer selected by cfg.Driver ("smtp" or "log").
func NewMailer(cfg config.MailConfig, logger zerolog.Logger) (Mailer, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPMailer(cfg, logger)
	case "log", "":
		return NewLogMailer(cfg.From, logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver: %s", cfg.Driver)
	}
}

// NewSMTPMailer creates an SMTPMailer from cfg.
func NewSMTPMailer(cfg config.MailConfig, logger zerolog.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newSMTPMailer(client, cfg.From, logger), nil
}

func newSMTPMailer(client sender, from string, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{
		client: client,
		from:   from,
		logger: logger.With().Str(pkglog.FieldComponent, "smtp_mailer").Logger(),
	}
}

// SendConfirmation mails the email-confirmation message to email.
func (m *SMTPMailer) SendConfirmation(ctx context.Context, email string) error {
	msg, err := m.confirmationMessage(email)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send confirmation mail: %w", err)
	}

	l := pkglog.CtxOr(ctx, m.logger)
	l.Debug().Str(pkglog.FieldEmail, email).Msg("confirmation mail sent")
	return nil
}

func (m *SMTPMailer) confirmationMessage(email string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(confirmationSubject)
	msg.SetBodyString(mail.TypeTextPlain, confirmationBody)
	return msg, nil
}

// LogMailer writes mail to the log instead of sending it.
type LogMailer struct {
	from   string
	logger zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(from string, logger zerolog.Logger) *LogMailer {
	return &LogMailer{
		from:   from,
		logger: logger.With().Str(pkglog.FieldComponent, "log_mailer").Logger(),
	}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, email string) error {
	l := pkglog.CtxOr(ctx, m.logger)
	l.Info().
		Str("from", m.from).
		Str(pkglog.FieldEmail, email).
		Str("subject", confirmationSubject).
		Msg(confirmationBody)
	return nil
}
