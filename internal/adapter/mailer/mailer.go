package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
	"github.com/wneessen/go-mail"
)

var _ port.EmailSender = (*SMTPSender)(nil)

const defaultTimeout = 10 * time.Second

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration

	// Insecure allows plain text SMTP, for local relays only.
	Insecure bool
}

type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(cfg Config) (SMTPSender, error) {
	const op = "NewSMTPSender"

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	tlsPolicy := mail.TLSMandatory
	if cfg.Insecure {
		tlsPolicy = mail.NoTLS
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return SMTPSender{}, fmt.Errorf("%s: %w", op, err)
	}
	return SMTPSender{client: c, from: cfg.From}, nil
}

func (s SMTPSender) Send(ctx context.Context, e domain.Email) error {
	const op = "SMTPSender.Send"
	log := slog.With("op", op)

	m, err := newMsg(s.from, e)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(ctx, err))
	}

	log.Info("email sent", "nLinks", len(e.Links))
	return nil
}

func newMsg(from string, e domain.Email) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(e.To); err != nil {
		return nil, domain.NewValidationError("email", "invalid address")
	}
	m.Subject(e.Subject)
	m.SetBodyString(mail.TypeTextPlain, e.Body)
	return m, nil
}

// translateErr keeps permanent recipient rejections out of retries.
func translateErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) &&
		sendErr.Reason == mail.ErrSMTPRcptTo && !sendErr.IsTemp() {
		return errors.Join(domain.NewValidationError("email", "rejected"), err)
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}
