// Package email dispatches notifications over SMTP.
package email

import (
	"context"
	"fmt"

	"clinic_crm_backend/internal/notification/inapp"
	"clinic_crm_backend/platform/config"

	"github.com/wneessen/go-mail"
)

// Dispatcher sends notification emails via SMTP using go-mail.
type Dispatcher struct {
	cfg       config.EmailConfig
	recipient func(userID string) (string, bool)
}

// NewDispatcher creates an SMTP dispatcher. The recipient resolver maps
// a user id to an email address; users without one are skipped.
func NewDispatcher(cfg config.EmailConfig, recipient func(userID string) (string, bool)) *Dispatcher {
	return &Dispatcher{cfg: cfg, recipient: recipient}
}

// Dispatch sends the notification as a plain-text email.
func (d *Dispatcher) Dispatch(ctx context.Context, n inapp.Notification) error {
	if d == nil || !d.cfg.GetEmailEnabled() {
		return nil
	}

	to, ok := d.recipient(n.UserID.String())
	if !ok {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(d.cfg.GetEmailFromName(), d.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	msg.Subject(n.Title)
	msg.SetBodyString(mail.TypeTextPlain, n.Message)

	client, err := mail.NewClient(d.cfg.GetSMTPHost(),
		mail.WithPort(d.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(d.cfg.GetSMTPUsername()),
		mail.WithPassword(d.cfg.GetSMTPPassword()),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	return client.DialAndSendWithContext(ctx, msg)
}

var _ inapp.Dispatcher = (*Dispatcher)(nil)
