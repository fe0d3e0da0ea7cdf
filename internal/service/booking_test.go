package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaahman/refreshment/internal/cleanup"
	"github.com/yaahman/refreshment/internal/domain"
	"github.com/yaahman/refreshment/internal/email"
	"github.com/yaahman/refreshment/internal/storage"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// mockEmailService records dispatched documents and can be told to fail.
type mockEmailService struct {
	failNotification  bool
	failConfirmation  bool
	panicNotification bool

	notifications []*domain.BookingRequest
	confirmations []*domain.BookingRequest
	attachments   []*email.Attachment
	contactNotes  []*domain.ContactMessage
	contactAcks   []*domain.ContactMessage
}

func (m *mockEmailService) SendBookingNotification(ctx context.Context, b *domain.BookingRequest, att *email.Attachment) error {
	if m.panicNotification {
		panic("smtp client state corrupted")
	}
	if m.failNotification {
		return errors.New("smtp: connection refused")
	}
	m.notifications = append(m.notifications, b)
	m.attachments = append(m.attachments, att)
	return nil
}

func (m *mockEmailService) SendBookingConfirmation(ctx context.Context, b *domain.BookingRequest) error {
	if m.failConfirmation {
		return errors.New("smtp: connection refused")
	}
	m.confirmations = append(m.confirmations, b)
	return nil
}

func (m *mockEmailService) SendContactNotification(ctx context.Context, msg *domain.ContactMessage) error {
	if m.failNotification {
		return errors.New("smtp: connection refused")
	}
	m.contactNotes = append(m.contactNotes, msg)
	return nil
}

func (m *mockEmailService) SendContactAck(ctx context.Context, msg *domain.ContactMessage) error {
	if m.failConfirmation {
		return errors.New("smtp: connection refused")
	}
	m.contactAcks = append(m.contactAcks, msg)
	return nil
}

func (m *mockEmailService) SendTestEmail(ctx context.Context) error {
	return nil
}

var _ email.EmailService = (*mockEmailService)(nil)

type bookingFixture struct {
	service BookingService
	store   storage.Storage
	emailer *mockEmailService
	janitor *cleanup.Janitor
	baseDir string
}

func newBookingFixture(t *testing.T, emailer *mockEmailService, cleanupDelay time.Duration) *bookingFixture {
	t.Helper()

	baseDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: baseDir,
		BaseURL:  "http://localhost:3001/media",
	}, logger)
	require.NoError(t, err)

	janitor := cleanup.NewJanitor(store, cleanupDelay, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		janitor.Stop(ctx)
	})

	var emailService email.EmailService
	if emailer != nil {
		emailService = emailer
	}

	return &bookingFixture{
		service: NewBookingService(store, emailService, janitor, domain.MaxAttachmentBytes, logger),
		store:   store,
		emailer: emailer,
		janitor: janitor,
		baseDir: baseDir,
	}
}

// newLoggedBookingFixture is newBookingFixture with the log output captured
// so tests can assert on what the service reports.
func newLoggedBookingFixture(t *testing.T, emailer *mockEmailService) (*bookingFixture, *bytes.Buffer) {
	t.Helper()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	baseDir := t.TempDir()
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: baseDir,
		BaseURL:  "http://localhost:3001/media",
	}, logger)
	require.NoError(t, err)

	janitor := cleanup.NewJanitor(store, time.Hour, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		janitor.Stop(ctx)
	})

	var emailService email.EmailService
	if emailer != nil {
		emailService = emailer
	}

	return &bookingFixture{
		service: NewBookingService(store, emailService, janitor, domain.MaxAttachmentBytes, logger),
		store:   store,
		emailer: emailer,
		janitor: janitor,
		baseDir: baseDir,
	}, &logBuf
}

// stagedFileCount walks the local storage directory counting staged files.
func stagedFileCount(t *testing.T, baseDir string) int {
	t.Helper()

	count := 0
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func validBooking() *domain.BookingRequest {
	return &domain.BookingRequest{
		Name:      "Donovan Palmer",
		Email:     "donovan@example.com",
		EventDate: "2026-10-10",
		EventType: "Wedding",
		Guests:    "120",
	}
}

// =============================================================================
// Submit Tests
// =============================================================================

func TestBookingSubmit_Success(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{}, time.Hour)

	receipt, err := f.service.Submit(context.Background(), validBooking(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchSent, receipt.Outcome)
	assert.Equal(t, bookingSentMessage, receipt.Message)
	require.Len(t, f.emailer.notifications, 1)
	require.Len(t, f.emailer.confirmations, 1)
	assert.Nil(t, f.emailer.attachments[0])
}

func TestBookingSubmit_ValidationFailure(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{}, time.Hour)

	booking := validBooking()
	booking.Email = "not-an-email"
	booking.EventType = ""

	_, err := f.service.Submit(context.Background(), booking, nil)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "eventType")

	// Nothing is dispatched on validation failure
	assert.Empty(t, f.emailer.notifications)
	assert.Empty(t, f.emailer.confirmations)
}

func TestBookingSubmit_ValidationFailureSkipsStaging(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{}, time.Hour)

	booking := validBooking()
	booking.Name = ""

	_, err := f.service.Submit(context.Background(), booking, &AttachmentUpload{
		Filename:    "menu.pdf",
		ContentType: "application/pdf",
		Data:        strings.NewReader("%PDF-1.4"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestBookingSubmit_WithAttachment(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{}, time.Hour)

	content := "%PDF-1.4 sample menu selections"
	receipt, err := f.service.Submit(context.Background(), validBooking(), &AttachmentUpload{
		Filename:    "menu.pdf",
		ContentType: "application/pdf",
		Data:        strings.NewReader(content),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchSent, receipt.Outcome)

	require.Len(t, f.emailer.attachments, 1)
	att := f.emailer.attachments[0]
	require.NotNil(t, att)
	assert.Equal(t, "menu.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, content, string(att.Data))
}

func TestBookingSubmit_AttachmentDisallowedExtension(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{}, time.Hour)

	_, err := f.service.Submit(context.Background(), validBooking(), &AttachmentUpload{
		Filename: "malware.exe",
		Data:     strings.NewReader("MZ"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Empty(t, f.emailer.notifications)
}

func TestBookingSubmit_AttachmentTooLarge(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:3001/media",
	}, logger)
	require.NoError(t, err)

	emailer := &mockEmailService{}
	janitor := cleanup.NewJanitor(store, time.Hour, logger)
	svc := NewBookingService(store, emailer, janitor, 1024, logger)

	_, err = svc.Submit(context.Background(), validBooking(), &AttachmentUpload{
		Filename: "huge.pdf",
		Data:     strings.NewReader(strings.Repeat("a", 2048)),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ETOOLARGE, domain.ErrorCode(err))
	assert.Empty(t, emailer.notifications)
}

func TestBookingSubmit_LogMode(t *testing.T) {
	f := newBookingFixture(t, nil, time.Hour)

	receipt, err := f.service.Submit(context.Background(), validBooking(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchLogged, receipt.Outcome)
	assert.Equal(t, bookingLoggedMessage, receipt.Message)
}

func TestBookingSubmit_TransportFailureIsSoft(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{failNotification: true}, time.Hour)

	receipt, err := f.service.Submit(context.Background(), validBooking(), nil)
	require.NoError(t, err, "transport failure must not fail the submission")

	assert.Equal(t, domain.DispatchFailed, receipt.Outcome)
	assert.Equal(t, bookingFailedMessage, receipt.Message)
}

func TestBookingSubmit_ConfirmationFailureIsSoft(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{failConfirmation: true}, time.Hour)

	receipt, err := f.service.Submit(context.Background(), validBooking(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchFailed, receipt.Outcome)
	// The operator notification still went out
	assert.Len(t, f.emailer.notifications, 1)
}

func TestBookingSubmit_AttachmentCleanedAfterDelay(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{}, 50*time.Millisecond)

	_, err := f.service.Submit(context.Background(), validBooking(), &AttachmentUpload{
		Filename: "photo.jpg",
		Data:     strings.NewReader("\xff\xd8\xff fake jpeg"),
	})
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if stagedFileCount(t, f.baseDir) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("staged attachment was not cleaned up")
}

func TestBookingSubmit_AttachmentCleanedOnTransportFailure(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{failNotification: true}, 50*time.Millisecond)

	receipt, err := f.service.Submit(context.Background(), validBooking(), &AttachmentUpload{
		Filename: "photo.jpg",
		Data:     strings.NewReader("\xff\xd8\xff fake jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchFailed, receipt.Outcome)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if stagedFileCount(t, f.baseDir) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("staged attachment must be cleaned up even when dispatch fails")
}

func TestBookingSubmit_AttachmentRemovedWhenDispatchPanics(t *testing.T) {
	f := newBookingFixture(t, &mockEmailService{panicNotification: true}, time.Hour)

	func() {
		defer func() {
			require.NotNil(t, recover(), "expected the dispatch panic to propagate")
		}()
		f.service.Submit(context.Background(), validBooking(), &AttachmentUpload{
			Filename: "photo.jpg",
			Data:     strings.NewReader("\xff\xd8\xff fake jpeg"),
		})
	}()

	assert.Equal(t, 0, stagedFileCount(t, f.baseDir),
		"staged attachment must not survive an abandoned submission")
}

func TestBookingSubmit_UnrecognizedEventDateLogged(t *testing.T) {
	f, logBuf := newLoggedBookingFixture(t, &mockEmailService{})

	booking := validBooking()
	booking.EventDate = "sometime next summer"

	receipt, err := f.service.Submit(context.Background(), booking, nil)
	require.NoError(t, err, "an odd date string is noted, not rejected")
	assert.Equal(t, domain.DispatchSent, receipt.Outcome)
	assert.Contains(t, logBuf.String(), "event date not in a recognized format")
}

func TestBookingSubmit_PastEventDateLogged(t *testing.T) {
	f, logBuf := newLoggedBookingFixture(t, &mockEmailService{})

	booking := validBooking()
	booking.EventDate = "2020-01-15"

	receipt, err := f.service.Submit(context.Background(), booking, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchSent, receipt.Outcome)
	assert.Contains(t, logBuf.String(), "event date is in the past")
}

func TestBookingSubmit_DispatchFailureLogged(t *testing.T) {
	f, logBuf := newLoggedBookingFixture(t, &mockEmailService{failNotification: true})

	receipt, err := f.service.Submit(context.Background(), validBooking(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DispatchFailed, receipt.Outcome)
	assert.Contains(t, logBuf.String(), "booking notification dispatch failed")
	assert.Contains(t, logBuf.String(), "connection refused")
}
