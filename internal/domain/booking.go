// Package domain contains core business types and interfaces.
//
// This file defines the BookingRequest domain type: one submission of the
// event-booking form, with the validation rules the API enforces before
// anything else happens to the request.
package domain

import (
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// Booking Request
// =============================================================================

// BookingRequest represents a single event-booking submission.
//
// Name, Email, EventDate and EventType are required. Everything else is
// optional and rendered with an explicit placeholder when absent, so the
// operator notification never shows a blank field.
type BookingRequest struct {
	Name          string   // Customer name (required)
	Email         string   // Customer email (required, syntactically checked)
	Phone         string   // Optional phone number
	EventDate     string   // Event date as submitted, e.g. "2026-10-04" (required)
	EventType     string   // Category such as "Wedding" or "Corporate" (required, open set)
	Guests        string   // Optional guest count, kept as submitted
	EventLocation string   // Optional venue/location
	Message       string   // Optional free-form message
	Preferences   []string // Optional multi-select beverage preferences
}

// emailPattern accepts the basic local@domain.tld shape. It is deliberately
// loose: the point is catching obvious typos, not RFC 5322 conformance.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate checks the required fields and the email shape.
// It returns a *ValidationError naming every failing field, or nil.
func (b *BookingRequest) Validate() error {
	const op = "booking.validate"

	var ve *ValidationError
	add := func(field, message string) {
		if ve == nil {
			ve = NewValidationError(op, field, message)
			return
		}
		ve.Fields[field] = message
	}

	if strings.TrimSpace(b.Name) == "" {
		add("name", "Please provide your name.")
	}
	switch {
	case strings.TrimSpace(b.Email) == "":
		add("email", "Please provide your email address.")
	case !ValidEmail(strings.TrimSpace(b.Email)):
		add("email", "Please provide a valid email address.")
	}
	if strings.TrimSpace(b.EventDate) == "" {
		add("eventDate", "Please choose an event date.")
	}
	if strings.TrimSpace(b.EventType) == "" {
		add("eventType", "Please choose an event type.")
	}

	if ve != nil {
		return ve
	}
	return nil
}

// EventDay parses EventDate as a calendar date.
// Returns the zero time and false if the value is not a recognizable date.
func (b *BookingRequest) EventDay() (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "01/02/2006", "2 January 2006"} {
		if t, err := time.Parse(layout, b.EventDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// Display helpers
// =============================================================================

// The operator notification renders missing optional fields with explicit
// placeholders rather than leaving them blank, matching the email copy.

// PhoneDisplay returns the phone number or a placeholder.
func (b *BookingRequest) PhoneDisplay() string {
	return orPlaceholder(b.Phone, "Not provided")
}

// GuestsDisplay returns the guest count or a placeholder.
func (b *BookingRequest) GuestsDisplay() string {
	return orPlaceholder(b.Guests, "Not specified")
}

// GuestsConfirmDisplay is the confirmation-email variant of the guest count.
func (b *BookingRequest) GuestsConfirmDisplay() string {
	return orPlaceholder(b.Guests, "To be confirmed")
}

// LocationDisplay returns the event location or a placeholder.
func (b *BookingRequest) LocationDisplay() string {
	return orPlaceholder(b.EventLocation, "Not specified")
}

// MessageDisplay returns the free-form message or a placeholder.
func (b *BookingRequest) MessageDisplay() string {
	return orPlaceholder(b.Message, "No additional message")
}

// PreferencesDisplay returns the selected preferences joined with commas,
// or a placeholder when none were selected.
func (b *BookingRequest) PreferencesDisplay() string {
	if len(b.Preferences) == 0 {
		return "No specific preferences"
	}
	return strings.Join(b.Preferences, ", ")
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// =============================================================================
// Attachment constraints
// =============================================================================

// MaxAttachmentBytes is the upper bound on an uploaded attachment.
const MaxAttachmentBytes = 5 * 1024 * 1024

// allowedAttachmentExts lists the file extensions accepted for booking
// attachments: images, PDFs, and common document types.
var allowedAttachmentExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// AllowedAttachmentExt reports whether the (dot-prefixed) extension is on
// the attachment allow-list. Comparison is case-insensitive.
func AllowedAttachmentExt(ext string) bool {
	return allowedAttachmentExts[strings.ToLower(ext)]
}
