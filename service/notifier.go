package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"storefront/entity"
	"storefront/pkg/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier delivers an issued code to its contact
type Notifier interface {
	SendOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, expiresAt time.Time) error
}

// LogNotifier prints codes to the console. Meant for development and for
// channels without a provider.
type LogNotifier struct {
	out io.Writer
}

// NewLogNotifier creates a notifier writing to stdout
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{out: os.Stdout}
}

// SendOTP prints the code
func (n *LogNotifier) SendOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, expiresAt time.Time) error {
	_, err := fmt.Fprintf(n.out, "🔐 OTP for %s (%s): %s (expires at %s)\n", contact, method, code, expiresAt.Format("15:04:05"))
	return err
}

// SendGridNotifier emails codes through SendGrid
type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *logger.Logger
}

// NewSendGridNotifier creates a notifier sending from the given address
func NewSendGridNotifier(apiKey, fromAddress, fromName string, logger *logger.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
}

// SendOTP emails the code. Only email contacts are supported.
func (n *SendGridNotifier) SendOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, expiresAt time.Time) error {
	if method != entity.MethodEmail {
		return fmt.Errorf("sendgrid cannot deliver to %s contacts", method)
	}

	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	subject := "Your order verification code"
	plain := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes)
	message := mail.NewSingleEmail(n.from, subject, mail.NewEmail("", contact), plain, html)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		n.logger.Errorw("SendGrid rejected email", "contact", contact, "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("failed to send email: sendgrid returned status %d", resp.StatusCode)
	}

	n.logger.Infow("OTP email sent", "contact", contact)
	return nil
}

// MultiNotifier routes each code to the notifier registered for its method
type MultiNotifier struct {
	byMethod map[entity.ContactMethod]Notifier
	fallback Notifier
}

// NewMultiNotifier creates a router. fallback handles methods without a
// dedicated notifier and may be nil.
func NewMultiNotifier(fallback Notifier) *MultiNotifier {
	return &MultiNotifier{
		byMethod: make(map[entity.ContactMethod]Notifier),
		fallback: fallback,
	}
}

// Register sets the notifier for method
func (m *MultiNotifier) Register(method entity.ContactMethod, n Notifier) *MultiNotifier {
	m.byMethod[method] = n
	return m
}

// SendOTP delegates to the notifier for method
func (m *MultiNotifier) SendOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, expiresAt time.Time) error {
	n, ok := m.byMethod[method]
	if !ok {
		n = m.fallback
	}
	if n == nil {
		return fmt.Errorf("no notifier for %s contacts", method)
	}
	return n.SendOTP(ctx, contact, method, code, expiresAt)
}
