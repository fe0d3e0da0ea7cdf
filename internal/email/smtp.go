package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"path/filepath"
	"strings"
	"time"

	"github.com/yaahman/refreshment/internal/domain"
)

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Gmail SMTP or any standard SMTP server (production)
//
// Email templates are loaded from the templates directory and rendered
// with Go's html/template package.
type SMTPEmailService struct {
	config       SMTPConfig
	companyEmail string
	baseURL      string
	templates    *template.Template
	logger       *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// Parameters:
// - config: SMTP server configuration
// - companyEmail: Operator inbox that receives booking and contact notifications
// - baseURL: Application base URL for constructing links (e.g., "http://localhost:3001")
// - templatesDir: Path to email templates directory (e.g., "web/templates/email")
// - logger: Structured logger for error reporting
func NewSMTPEmailService(
	config SMTPConfig,
	companyEmail string,
	baseURL string,
	templatesDir string,
	logger *slog.Logger,
) (*SMTPEmailService, error) {
	// Set defaults
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	// Load email templates
	pattern := filepath.Join(templatesDir, "*.html")
	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:       config,
		companyEmail: companyEmail,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		templates:    templates,
		logger:       logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendBookingNotification sends the full booking inquiry to the operator.
func (s *SMTPEmailService) SendBookingNotification(ctx context.Context, booking *domain.BookingRequest, attachment *Attachment) error {
	data := map[string]interface{}{
		"Name":        booking.Name,
		"Email":       booking.Email,
		"Phone":       booking.PhoneDisplay(),
		"EventType":   booking.EventType,
		"EventDate":   booking.EventDate,
		"Guests":      booking.GuestsDisplay(),
		"Location":    booking.LocationDisplay(),
		"Preferences": booking.PreferencesDisplay(),
		"Message":     booking.MessageDisplay(),
		"Year":        time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("booking_notification.html", data)
	if err != nil {
		return fmt.Errorf("failed to render booking notification template: %w", err)
	}

	textBody := fmt.Sprintf(`New booking request received!

Customer Information:
Name: %s
Email: %s
Phone: %s

Event Details:
Event Type: %s
Event Date: %s
Number of Guests: %s
Event Location: %s

Preferences:
%s

Additional Message:
%s

This booking was received through the Yaahman Refreshment website.
`, booking.Name, booking.Email, booking.PhoneDisplay(),
		booking.EventType, booking.EventDate, booking.GuestsDisplay(), booking.LocationDisplay(),
		booking.PreferencesDisplay(), booking.MessageDisplay())

	email := Email{
		To:       s.companyEmail,
		ReplyTo:  booking.Email,
		Subject:  fmt.Sprintf("NEW BOOKING: %s on %s", booking.EventType, booking.EventDate),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if attachment != nil {
		email.Attachments = []Attachment{*attachment}
	}

	return s.send(ctx, email)
}

// SendBookingConfirmation sends a confirmation to the customer.
func (s *SMTPEmailService) SendBookingConfirmation(ctx context.Context, booking *domain.BookingRequest) error {
	data := map[string]interface{}{
		"Name":         booking.Name,
		"EventType":    booking.EventType,
		"EventDate":    booking.EventDate,
		"Guests":       booking.GuestsConfirmDisplay(),
		"CompanyEmail": s.companyEmail,
		"Year":         time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("booking_confirmation.html", data)
	if err != nil {
		return fmt.Errorf("failed to render booking confirmation template: %w", err)
	}

	textBody := fmt.Sprintf(`Thank you, %s!

We're excited to confirm that we've received your booking request for:

Event Type: %s
Event Date: %s
Number of Guests: %s

What happens next?
1. We'll review your request within 24 hours
2. We'll contact you to discuss details and provide a quote
3. We'll work with you to create the perfect beverage experience

If you have any immediate questions, reply to this email or call us at (876) 555-1234.

Best regards,
The Yaahman Refreshment Team
`, booking.Name, booking.EventType, booking.EventDate, booking.GuestsConfirmDisplay())

	email := Email{
		To:       booking.Email,
		Subject:  "Booking Confirmation - Yaahman Refreshment",
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	return s.send(ctx, email)
}

// SendContactNotification sends a contact form message to the operator.
func (s *SMTPEmailService) SendContactNotification(ctx context.Context, msg *domain.ContactMessage) error {
	data := map[string]interface{}{
		"Name":    msg.Name,
		"Email":   msg.Email,
		"Subject": msg.Subject,
		"Message": msg.Message,
		"Year":    time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("contact_notification.html", data)
	if err != nil {
		return fmt.Errorf("failed to render contact notification template: %w", err)
	}

	textBody := fmt.Sprintf(`New contact message received!

Name: %s
Email: %s
Subject: %s

Message:
%s

This message was sent through the Yaahman Refreshment website.
`, msg.Name, msg.Email, msg.Subject, msg.Message)

	email := Email{
		To:       s.companyEmail,
		ReplyTo:  msg.Email,
		Subject:  fmt.Sprintf("NEW CONTACT MESSAGE: %s", msg.Subject),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	return s.send(ctx, email)
}

// SendContactAck sends an acknowledgement to the person who wrote in.
func (s *SMTPEmailService) SendContactAck(ctx context.Context, msg *domain.ContactMessage) error {
	data := map[string]interface{}{
		"Name":         msg.Name,
		"Subject":      msg.Subject,
		"CompanyEmail": s.companyEmail,
		"Year":         time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("contact_ack.html", data)
	if err != nil {
		return fmt.Errorf("failed to render contact acknowledgement template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Thanks for getting in touch about "%s". We've received your message and
will get back to you within 24 hours.

Best regards,
The Yaahman Refreshment Team
`, msg.Name, msg.Subject)

	email := Email{
		To:       msg.Email,
		Subject:  "We received your message - Yaahman Refreshment",
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	return s.send(ctx, email)
}

// SendTestEmail sends a short test message to the operator.
func (s *SMTPEmailService) SendTestEmail(ctx context.Context) error {
	email := Email{
		To:       s.companyEmail,
		Subject:  "Email Test - Yaahman Refreshment",
		HTMLBody: "<h2>Email system is working correctly!</h2><p>This is a test email from your booking system.</p>",
		TextBody: "Email system is working correctly!\n\nThis is a test email from your booking system.\n",
	}

	return s.send(ctx, email)
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(email)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Create auth if credentials are provided (not needed for Mailhog)
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	err := smtp.SendMail(addr, auth, s.config.From, []string{email.To}, msg)
	if err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
		"attachments", len(email.Attachments),
	)

	return nil
}

// buildMessage constructs the raw email message with headers.
//
// Messages without attachments are multipart/alternative (text + HTML).
// Messages with attachments wrap that in a multipart/mixed envelope with
// the files base64 encoded.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	if email.ReplyTo != "" {
		buf.WriteString(fmt.Sprintf("Reply-To: %s\r\n", email.ReplyTo))
	}
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	altBoundary := "===============YAAHMAN_ALT_BOUNDARY==============="

	if len(email.Attachments) == 0 {
		buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
		buf.WriteString("\r\n")
		writeAlternativeParts(&buf, altBoundary, email)
		return buf.Bytes()
	}

	mixedBoundary := "===============YAAHMAN_MIXED_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixedBoundary))
	buf.WriteString("\r\n")

	// Body as a nested multipart/alternative part
	buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
	buf.WriteString("\r\n")
	writeAlternativeParts(&buf, altBoundary, email)

	// Attachment parts
	for _, att := range email.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		buf.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		buf.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", contentType, att.Filename))
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
		buf.WriteString("\r\n")
		writeBase64(&buf, att.Data)
		buf.WriteString("\r\n")
	}

	buf.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))

	return buf.Bytes()
}

// writeAlternativeParts writes the text and HTML parts of a message.
func writeAlternativeParts(buf *bytes.Buffer, boundary string, email Email) {
	// Plain text part
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	// HTML part
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	// End boundary
	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
}

// writeBase64 writes data base64 encoded with 76 character lines per RFC 2045.
func writeBase64(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// Template Functions
// =============================================================================

// emailTemplateFuncs returns template functions available in email templates.
func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SMTPEmailService)(nil)
