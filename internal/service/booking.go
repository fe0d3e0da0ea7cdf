// Package service contains the business logic layer.
//
// This file implements the booking service: validate the inquiry, stage
// the optional attachment, dispatch the operator and customer emails, and
// schedule attachment cleanup.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/yaahman/refreshment/internal/cleanup"
	"github.com/yaahman/refreshment/internal/domain"
	"github.com/yaahman/refreshment/internal/email"
	"github.com/yaahman/refreshment/internal/metrics"
	"github.com/yaahman/refreshment/internal/storage"
)

// =============================================================================
// Customer-Facing Messages
// =============================================================================

const (
	bookingSentMessage   = "Booking submitted successfully! Confirmation email sent."
	bookingLoggedMessage = "Booking received! We will contact you soon."
	bookingFailedMessage = "Booking received! (Email notification failed - we still got your booking)"
)

// =============================================================================
// Interface Definition
// =============================================================================

// BookingService defines the interface for booking-related operations.
//
// This interface enables:
// - Mocking in unit tests
// - Clear contract definition for handlers
type BookingService interface {
	// Submit processes a booking inquiry end to end.
	// Returns domain.EINVALID for validation errors and disallowed
	// attachment types, domain.ETOOLARGE for oversized attachments.
	// Mail transport failures do NOT produce an error; they surface as
	// a Receipt with DispatchFailed.
	Submit(ctx context.Context, req *domain.BookingRequest, attachment *AttachmentUpload) (*domain.Receipt, error)
}

// AttachmentUpload is an optional file accompanying a booking inquiry.
type AttachmentUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// =============================================================================
// Implementation
// =============================================================================

// bookingService implements the BookingService interface.
type bookingService struct {
	store   storage.Storage
	emailer email.EmailService // nil when email is not configured (log mode)
	janitor *cleanup.Janitor
	maxSize int64
	logger  *slog.Logger
}

// NewBookingService creates a new BookingService.
//
// Parameters:
// - store: Storage backend for staging attachments
// - emailer: Email service, or nil to run in log mode
// - janitor: Deferred attachment cleanup
// - maxSize: Maximum attachment size in bytes
// - logger: Structured logger for operation logging
func NewBookingService(
	store storage.Storage,
	emailer email.EmailService,
	janitor *cleanup.Janitor,
	maxSize int64,
	logger *slog.Logger,
) BookingService {
	if maxSize <= 0 {
		maxSize = domain.MaxAttachmentBytes
	}

	return &bookingService{
		store:   store,
		emailer: emailer,
		janitor: janitor,
		maxSize: maxSize,
		logger:  logger,
	}
}

// =============================================================================
// Submit
// =============================================================================

// Submit processes a booking inquiry end to end.
func (s *bookingService) Submit(ctx context.Context, req *domain.BookingRequest, attachment *AttachmentUpload) (*domain.Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The date is accepted as submitted, but flag anything the operator
	// will have to chase up manually.
	if day, ok := req.EventDay(); !ok {
		s.logger.Warn("event date not in a recognized format",
			"event_date", req.EventDate,
			"email", req.Email,
		)
	} else if day.Before(time.Now().Truncate(24 * time.Hour)) {
		s.logger.Warn("event date is in the past",
			"event_date", req.EventDate,
			"email", req.Email,
		)
	}

	// Stage the attachment before dispatch so both emails see a
	// consistent copy
	var (
		key          string
		mailAtt      *email.Attachment
		attachedName string
		scheduled    bool
	)
	if attachment != nil {
		staged, err := s.stageAttachment(ctx, attachment)
		if err != nil {
			return nil, err
		}
		key = staged.key
		mailAtt = staged.mail
		attachedName = attachment.Filename

		// Until scheduled deletion takes over, the staged file is this
		// request's responsibility. If processing aborts before then
		// (a panic during dispatch), remove the file on the way out so
		// it cannot leak.
		defer func() {
			if !scheduled {
				s.janitor.DeleteNow(context.WithoutCancel(ctx), key)
			}
		}()
	}

	receipt := s.dispatch(ctx, req, mailAtt)

	// The staged copy is only needed while the emails go out. Scheduled
	// deletion covers every dispatch outcome, including failure.
	if key != "" {
		s.janitor.Schedule(key)
		scheduled = true
	}

	s.logger.Info("booking accepted",
		"email", req.Email,
		"event_type", req.EventType,
		"event_date", req.EventDate,
		"attachment", attachedName,
		"outcome", receipt.Outcome,
	)
	metrics.BookingsReceived.Inc()

	return receipt, nil
}

// stagedAttachment pairs the storage key with the in-memory copy used
// for the operator email.
type stagedAttachment struct {
	key  string
	mail *email.Attachment
}

// stageAttachment validates and stores an uploaded file.
func (s *bookingService) stageAttachment(ctx context.Context, upload *AttachmentUpload) (*stagedAttachment, error) {
	const op = "booking.stage"

	ext := filepath.Ext(upload.Filename)
	if !domain.AllowedAttachmentExt(ext) {
		return nil, domain.Invalid(op, fmt.Sprintf("attachment type %q is not allowed", ext))
	}

	// Read one byte past the limit so oversized uploads are detectable
	data, err := io.ReadAll(io.LimitReader(upload.Data, s.maxSize+1))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read attachment")
	}
	if int64(len(data)) > s.maxSize {
		return nil, domain.TooLarge(op, fmt.Sprintf("attachment exceeds the %d MB limit", s.maxSize/(1024*1024)))
	}

	contentType := storage.DetectContentType(upload.ContentType, upload.Filename, bytes.NewReader(data))
	if !storage.IsAllowedAttachmentType(contentType) {
		return nil, domain.Invalid(op, fmt.Sprintf("attachment type %q is not allowed", contentType))
	}

	key := storage.AttachmentKey(upload.Filename)
	err = s.store.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     s.maxSize,
	})
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, domain.TooLarge(op, fmt.Sprintf("attachment exceeds the %d MB limit", s.maxSize/(1024*1024)))
		}
		return nil, domain.Internal(err, op, "failed to stage attachment")
	}

	s.logger.Debug("staged attachment", "key", key, "size", len(data), "content_type", contentType)
	metrics.AttachmentsStaged.Inc()

	return &stagedAttachment{
		key: key,
		mail: &email.Attachment{
			Filename:    upload.Filename,
			ContentType: contentType,
			Data:        data,
		},
	}, nil
}

// dispatch sends the operator notification and customer confirmation.
// Transport failure is soft: the inquiry is already accepted, so the
// receipt reports the failure instead of an error.
func (s *bookingService) dispatch(ctx context.Context, req *domain.BookingRequest, att *email.Attachment) *domain.Receipt {
	if s.emailer == nil {
		s.logBooking(req, att)
		metrics.EmailsSent.WithLabelValues("booking_notification", "logged").Inc()
		metrics.EmailsSent.WithLabelValues("booking_confirmation", "logged").Inc()
		return &domain.Receipt{Outcome: domain.DispatchLogged, Message: bookingLoggedMessage}
	}

	if err := s.emailer.SendBookingNotification(ctx, req, att); err != nil {
		s.logger.Error("booking notification dispatch failed", "email", req.Email, "error", err)
		metrics.EmailsSent.WithLabelValues("booking_notification", "failed").Inc()
		return &domain.Receipt{Outcome: domain.DispatchFailed, Message: bookingFailedMessage}
	}
	metrics.EmailsSent.WithLabelValues("booking_notification", "sent").Inc()

	if err := s.emailer.SendBookingConfirmation(ctx, req); err != nil {
		s.logger.Error("booking confirmation dispatch failed", "email", req.Email, "error", err)
		metrics.EmailsSent.WithLabelValues("booking_confirmation", "failed").Inc()
		return &domain.Receipt{Outcome: domain.DispatchFailed, Message: bookingFailedMessage}
	}
	metrics.EmailsSent.WithLabelValues("booking_confirmation", "sent").Inc()

	return &domain.Receipt{Outcome: domain.DispatchSent, Message: bookingSentMessage}
}

// logBooking records the full inquiry when email is not configured.
// Nothing is persisted, so the log line is the only record.
func (s *bookingService) logBooking(req *domain.BookingRequest, att *email.Attachment) {
	attachmentName := ""
	if att != nil {
		attachmentName = att.Filename
	}

	s.logger.Info("booking inquiry (email not configured)",
		"name", req.Name,
		"email", req.Email,
		"phone", req.PhoneDisplay(),
		"event_type", req.EventType,
		"event_date", req.EventDate,
		"guests", req.GuestsDisplay(),
		"location", req.LocationDisplay(),
		"preferences", strings.Join(req.Preferences, ", "),
		"message", req.MessageDisplay(),
		"attachment", attachmentName,
	)
}
