// Package email provides email sending functionality for the Yaahman
// Refreshment booking backend.
//
// This package defines an EmailService interface with implementations for:
// - SMTP (for development with Mailhog and production with providers like Gmail SMTP)
// - Future: API-based providers for delivery tracking
package email

import (
	"context"

	"github.com/yaahman/refreshment/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
//
// Every booking produces two documents: an operator notification carrying
// the full inquiry, and a customer confirmation echoing the key details.
// Contact messages follow the same dual-dispatch shape.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendBookingNotification sends the full booking inquiry to the operator.
	// Parameters:
	// - booking: The validated booking request
	// - attachment: Optional staged file to include, nil when none was uploaded
	SendBookingNotification(ctx context.Context, booking *domain.BookingRequest, attachment *Attachment) error

	// SendBookingConfirmation sends a confirmation to the customer echoing
	// the event date, event type and guest count.
	SendBookingConfirmation(ctx context.Context, booking *domain.BookingRequest) error

	// SendContactNotification sends a contact form message to the operator.
	SendContactNotification(ctx context.Context, msg *domain.ContactMessage) error

	// SendContactAck sends an acknowledgement to the person who wrote in.
	SendContactAck(ctx context.Context, msg *domain.ContactMessage) error

	// SendTestEmail sends a short test message to the operator to verify
	// the SMTP path end to end.
	SendTestEmail(ctx context.Context) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To          string       // Recipient email address
	ReplyTo     string       // Optional Reply-To address
	Subject     string       // Email subject line
	HTMLBody    string       // HTML content of the email
	TextBody    string       // Plain text fallback content
	Attachments []Attachment // Optional file attachments
}

// Attachment is a file attached to an outgoing email.
// Data is held in memory; staged attachments are small (5 MiB cap).
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "bookings@yaahmanrefreshment.com"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Yaahman Refreshment"
)
