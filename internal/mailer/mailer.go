package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/grga023/latice-erp/internal/models"
	"github.com/grga023/latice-erp/internal/util"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPMailer delivers HTML mail through an SMTP relay. Sender credentials
// come from the stored notification settings on every send, so settings
// changes take effect without a restart. The dial/send is bounded by a short
// timeout so a slow relay cannot stall the scan loop.
type SMTPMailer struct {
	host    string
	port    int
	timeout time.Duration
	logger  *zap.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(host string, port int, timeout time.Duration) *SMTPMailer {
	return &SMTPMailer{
		host:    host,
		port:    port,
		timeout: timeout,
		logger:  util.GetLogger(),
	}
}

// Send delivers one HTML message to the given recipients.
func (m *SMTPMailer) Send(ctx context.Context, settings *models.EmailSettings, subject, htmlBody string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(settings.SenderEmail); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(settings.SenderEmail),
		mail.WithPassword(settings.AppPassword),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}

	m.logger.Info("Email sent",
		zap.String("subject", subject),
		zap.Int("recipients", len(recipients)))
	return nil
}
