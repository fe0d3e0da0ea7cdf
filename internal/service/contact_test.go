package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaahman/refreshment/internal/domain"
	"github.com/yaahman/refreshment/internal/email"
)

func validContact() *domain.ContactMessage {
	return &domain.ContactMessage{
		Name:    "Alicia Grant",
		Email:   "alicia@example.com",
		Subject: "Corporate event catering",
		Message: "Do you serve non-alcoholic options for a team of 40?",
	}
}

func newContactService(emailer *mockEmailService) ContactService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var emailService email.EmailService
	if emailer != nil {
		emailService = emailer
	}
	return NewContactService(emailService, logger)
}

func TestContactSubmit_Success(t *testing.T) {
	emailer := &mockEmailService{}
	svc := newContactService(emailer)

	receipt, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchSent, receipt.Outcome)
	assert.Equal(t, contactSentMessage, receipt.Message)
	require.Len(t, emailer.contactNotes, 1)
	require.Len(t, emailer.contactAcks, 1)
	assert.Equal(t, "Corporate event catering", emailer.contactNotes[0].Subject)
}

func TestContactSubmit_ValidationFailure(t *testing.T) {
	emailer := &mockEmailService{}
	svc := newContactService(emailer)

	tests := []struct {
		name   string
		mutate func(*domain.ContactMessage)
		field  string
	}{
		{"missing name", func(m *domain.ContactMessage) { m.Name = "" }, "name"},
		{"missing email", func(m *domain.ContactMessage) { m.Email = "" }, "email"},
		{"malformed email", func(m *domain.ContactMessage) { m.Email = "nobody@nowhere" }, "email"},
		{"missing subject", func(m *domain.ContactMessage) { m.Subject = "" }, "subject"},
		{"missing message", func(m *domain.ContactMessage) { m.Message = "" }, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validContact()
			tt.mutate(msg)

			_, err := svc.Submit(context.Background(), msg)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	assert.Empty(t, emailer.contactNotes)
}

func TestContactSubmit_LogMode(t *testing.T) {
	svc := newContactService(nil)

	receipt, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchLogged, receipt.Outcome)
	assert.Equal(t, contactLoggedMessage, receipt.Message)
}

func TestContactSubmit_TransportFailureIsSoft(t *testing.T) {
	svc := newContactService(&mockEmailService{failNotification: true})

	receipt, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err, "transport failure must not fail the submission")

	assert.Equal(t, domain.DispatchFailed, receipt.Outcome)
	assert.Equal(t, contactFailedMessage, receipt.Message)
}

func TestContactSubmit_AckFailureIsSoft(t *testing.T) {
	emailer := &mockEmailService{failConfirmation: true}
	svc := newContactService(emailer)

	receipt, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchFailed, receipt.Outcome)
	assert.Len(t, emailer.contactNotes, 1)
}

func TestContactSubmit_DispatchFailureLogged(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	svc := NewContactService(&mockEmailService{failNotification: true}, logger)

	receipt, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchFailed, receipt.Outcome)
	assert.Contains(t, logBuf.String(), "contact notification dispatch failed")
	assert.Contains(t, logBuf.String(), "connection refused")
}
