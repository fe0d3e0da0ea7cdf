// Package handler contains HTTP handlers for the Yaahman Refreshment site.
//
// This file implements the JSON API: booking submissions, contact messages,
// and the liveness probe the deploy checks hit.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/yaahman/refreshment/internal/domain"
	"github.com/yaahman/refreshment/internal/email"
	"github.com/yaahman/refreshment/internal/service"
)

// =============================================================================
// Response Envelope
// =============================================================================

// APIResponse is the envelope every API endpoint responds with. The form
// client reads ok to decide between the success and failure paths and shows
// message verbatim.
type APIResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`

	// Set by GET /api/test only.
	EmailConfigured *bool  `json:"emailConfigured,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
}

// maxBookingBodyBytes caps the whole request body, multipart framing
// included. Slightly above the attachment limit so a file right at the
// limit still parses and gets the specific too-large message.
const maxBookingBodyBytes = domain.MaxAttachmentBytes + 1<<20

// maxJSONBodyBytes caps plain JSON bodies, which carry no file data.
const maxJSONBodyBytes = 64 << 10

// =============================================================================
// Handler Configuration
// =============================================================================

// APIHandler handles the /api endpoints.
type APIHandler struct {
	bookings service.BookingService
	contact  service.ContactService
	emailer  email.EmailService // nil in log mode; used by /api/test-email
	logger   *slog.Logger
}

// NewAPIHandler creates a new APIHandler.
//
// Parameters:
// - bookings: Booking submission service
// - contact: Contact message service
// - emailer: Email service, or nil when running in log mode
// - logger: Structured logger for request logging
func NewAPIHandler(
	bookings service.BookingService,
	contact service.ContactService,
	emailer email.EmailService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		bookings: bookings,
		contact:  contact,
		emailer:  emailer,
		logger:   logger,
	}
}

// RegisterRoutes registers the API routes with the provided mux.
//
// Routes:
// - POST /api/bookings   -> SubmitBooking
// - POST /api/contact    -> SubmitContact
// - GET  /api/test       -> Test
// - POST /api/test-email -> TestEmail
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/bookings", h.SubmitBooking)
	mux.HandleFunc("POST /api/contact", h.SubmitContact)
	mux.HandleFunc("GET /api/test", h.Test)
	mux.HandleFunc("POST /api/test-email", h.TestEmail)
}

// =============================================================================
// POST /api/bookings - Submit Booking
// =============================================================================

// bookingPayload mirrors the booking form's JSON body.
type bookingPayload struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	EventDate     string   `json:"eventDate"`
	EventType     string   `json:"eventType"`
	Guests        string   `json:"guests"`
	EventLocation string   `json:"eventLocation"`
	Message       string   `json:"message"`
	Preferences   []string `json:"preferences"`
}

// SubmitBooking processes a booking inquiry.
//
// Accepts either a JSON body or multipart/form-data with an optional
// "attachment" file part. Validation failures come back 400 with the
// failing fields listed; an oversized attachment comes back 413. Mail
// transport trouble is a soft success: ok stays true and the message
// says the notification failed.
func (h *APIHandler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBookingBodyBytes)

	req, upload, err := h.parseBookingRequest(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if upload != nil && upload.file != nil {
		defer upload.close()
	}

	receipt, err := h.bookings.Submit(r.Context(), req, upload.toService())
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ValidationErrorResponse(w, r, h.logger, err)
			return
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{OK: true, Message: receipt.Message})
}

// parseBookingRequest decodes the booking submission from either encoding.
func (h *APIHandler) parseBookingRequest(r *http.Request) (*domain.BookingRequest, *bookingUpload, error) {
	const op = "handler.parseBookingRequest"

	if isMultipart(r) {
		return h.parseBookingMultipart(r)
	}

	var payload bookingPayload
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		return nil, nil, domain.Invalid(op, "Request body must be valid JSON.")
	}

	return &domain.BookingRequest{
		Name:          payload.Name,
		Email:         payload.Email,
		Phone:         payload.Phone,
		EventDate:     payload.EventDate,
		EventType:     payload.EventType,
		Guests:        payload.Guests,
		EventLocation: payload.EventLocation,
		Message:       payload.Message,
		Preferences:   payload.Preferences,
	}, nil, nil
}

// parseBookingMultipart decodes a multipart/form-data booking submission.
func (h *APIHandler) parseBookingMultipart(r *http.Request) (*domain.BookingRequest, *bookingUpload, error) {
	const op = "handler.parseBookingMultipart"

	// Small memory threshold; anything bigger spills to a temp file that
	// net/http removes when the request finishes.
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, domain.TooLarge(op, "Attachment is too large. Maximum size is 5MB.")
		}
		return nil, nil, domain.Invalid(op, "Invalid form data.")
	}

	req := &domain.BookingRequest{
		Name:          r.FormValue("name"),
		Email:         r.FormValue("email"),
		Phone:         r.FormValue("phone"),
		EventDate:     r.FormValue("eventDate"),
		EventType:     r.FormValue("eventType"),
		Guests:        r.FormValue("guests"),
		EventLocation: r.FormValue("eventLocation"),
		Message:       r.FormValue("message"),
	}
	if r.MultipartForm != nil {
		req.Preferences = r.MultipartForm.Value["preferences"]
	}

	file, header, err := r.FormFile("attachment")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, nil
		}
		return nil, nil, domain.Invalid(op, "Could not read the attached file.")
	}

	return req, &bookingUpload{
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
		file:        file,
	}, nil
}

// bookingUpload wraps the multipart file so the handler can close it after
// the service has consumed it.
type bookingUpload struct {
	filename    string
	contentType string
	file        multipart.File
}

func (u *bookingUpload) toService() *service.AttachmentUpload {
	if u == nil {
		return nil
	}
	return &service.AttachmentUpload{
		Filename:    u.filename,
		ContentType: u.contentType,
		Data:        u.file,
	}
}

func (u *bookingUpload) close() {
	if u != nil && u.file != nil {
		u.file.Close()
	}
}

// =============================================================================
// POST /api/contact - Submit Contact Message
// =============================================================================

// contactPayload mirrors the contact form's JSON body.
type contactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitContact processes a contact-form message.
func (h *APIHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	const op = "handler.SubmitContact"

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Request body must be valid JSON."))
		return
	}

	msg := &domain.ContactMessage{
		Name:    payload.Name,
		Email:   payload.Email,
		Subject: payload.Subject,
		Message: payload.Message,
	}

	receipt, err := h.contact.Submit(r.Context(), msg)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ValidationErrorResponse(w, r, h.logger, err)
			return
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{OK: true, Message: receipt.Message})
}

// =============================================================================
// GET /api/test - Liveness Probe
// =============================================================================

// Test reports that the API is up and whether email is configured.
func (h *APIHandler) Test(w http.ResponseWriter, r *http.Request) {
	configured := h.emailer != nil
	writeJSON(w, http.StatusOK, APIResponse{
		OK:              true,
		Message:         "Yaahman Refreshment API is working!",
		EmailConfigured: &configured,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// POST /api/test-email - Send Test Email
// =============================================================================

// TestEmail sends a test email to the operator address so a fresh SMTP
// configuration can be verified without filing a real booking.
func (h *APIHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	if h.emailer == nil {
		writeJSON(w, http.StatusOK, APIResponse{
			OK:      true,
			Message: "Email not configured - running in log mode",
		})
		return
	}

	if err := h.emailer.SendTestEmail(r.Context()); err != nil {
		h.logger.Error("test email failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, APIResponse{
			OK:      false,
			Message: "Test email failed to send. Check the SMTP settings.",
		})
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{OK: true, Message: "Test email sent!"})
}

// =============================================================================
// Helper Functions
// =============================================================================

// isMultipart reports whether the request body is multipart/form-data.
func isMultipart(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.HasPrefix(ct, "multipart/")
	}
	return mediaType == "multipart/form-data"
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
