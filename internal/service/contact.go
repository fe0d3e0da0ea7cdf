// This file implements the contact service: validate the message and
// dispatch the operator notification plus the sender acknowledgement.
package service

import (
	"context"
	"log/slog"

	"github.com/yaahman/refreshment/internal/domain"
	"github.com/yaahman/refreshment/internal/email"
	"github.com/yaahman/refreshment/internal/metrics"
)

// =============================================================================
// Customer-Facing Messages
// =============================================================================

const (
	contactSentMessage   = "Message sent successfully! We'll get back to you soon."
	contactLoggedMessage = "Message received! We will contact you soon."
	contactFailedMessage = "Message received! (Email notification failed - we still got your message)"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ContactService defines the interface for contact form operations.
type ContactService interface {
	// Submit processes a contact form message.
	// Returns domain.EINVALID for validation errors. Mail transport
	// failures surface as a Receipt with DispatchFailed, not an error.
	Submit(ctx context.Context, msg *domain.ContactMessage) (*domain.Receipt, error)
}

// =============================================================================
// Implementation
// =============================================================================

// contactService implements the ContactService interface.
type contactService struct {
	emailer email.EmailService // nil when email is not configured (log mode)
	logger  *slog.Logger
}

// NewContactService creates a new ContactService.
func NewContactService(emailer email.EmailService, logger *slog.Logger) ContactService {
	return &contactService{
		emailer: emailer,
		logger:  logger,
	}
}

// Submit processes a contact form message.
func (s *contactService) Submit(ctx context.Context, msg *domain.ContactMessage) (*domain.Receipt, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	receipt := s.dispatch(ctx, msg)

	s.logger.Info("contact message accepted",
		"email", msg.Email,
		"subject", msg.Subject,
		"outcome", receipt.Outcome,
	)
	metrics.ContactMessages.Inc()

	return receipt, nil
}

// dispatch sends the operator notification and the acknowledgement.
func (s *contactService) dispatch(ctx context.Context, msg *domain.ContactMessage) *domain.Receipt {
	if s.emailer == nil {
		s.logger.Info("contact message (email not configured)",
			"name", msg.Name,
			"email", msg.Email,
			"subject", msg.Subject,
			"message", msg.Message,
		)
		metrics.EmailsSent.WithLabelValues("contact_notification", "logged").Inc()
		metrics.EmailsSent.WithLabelValues("contact_ack", "logged").Inc()
		return &domain.Receipt{Outcome: domain.DispatchLogged, Message: contactLoggedMessage}
	}

	if err := s.emailer.SendContactNotification(ctx, msg); err != nil {
		s.logger.Error("contact notification dispatch failed", "email", msg.Email, "error", err)
		metrics.EmailsSent.WithLabelValues("contact_notification", "failed").Inc()
		return &domain.Receipt{Outcome: domain.DispatchFailed, Message: contactFailedMessage}
	}
	metrics.EmailsSent.WithLabelValues("contact_notification", "sent").Inc()

	if err := s.emailer.SendContactAck(ctx, msg); err != nil {
		s.logger.Error("contact acknowledgement dispatch failed", "email", msg.Email, "error", err)
		metrics.EmailsSent.WithLabelValues("contact_ack", "failed").Inc()
		return &domain.Receipt{Outcome: domain.DispatchFailed, Message: contactFailedMessage}
	}
	metrics.EmailsSent.WithLabelValues("contact_ack", "sent").Inc()

	return &domain.Receipt{Outcome: domain.DispatchSent, Message: contactSentMessage}
}
