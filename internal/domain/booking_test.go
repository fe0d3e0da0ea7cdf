package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingRequest_Validate(t *testing.T) {
	valid := BookingRequest{
		Name:      "Donovan Palmer",
		Email:     "donovan@example.com",
		EventDate: "2026-10-10",
		EventType: "Wedding",
	}

	tests := []struct {
		name       string
		mutate     func(b *BookingRequest)
		wantFields []string
	}{
		{"valid request", func(b *BookingRequest) {}, nil},
		{"missing name", func(b *BookingRequest) { b.Name = "" }, []string{"name"}},
		{"whitespace name", func(b *BookingRequest) { b.Name = "   " }, []string{"name"}},
		{"missing email", func(b *BookingRequest) { b.Email = "" }, []string{"email"}},
		{"malformed email", func(b *BookingRequest) { b.Email = "donovan@nowhere" }, []string{"email"}},
		{"email with spaces", func(b *BookingRequest) { b.Email = "don ovan@example.com" }, []string{"email"}},
		{"missing date", func(b *BookingRequest) { b.EventDate = "" }, []string{"eventDate"}},
		{"missing type", func(b *BookingRequest) { b.EventType = "" }, []string{"eventType"}},
		{"everything missing", func(b *BookingRequest) { *b = BookingRequest{} }, []string{"name", "email", "eventDate", "eventType"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := b.Validate()

			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			if assert.ErrorAs(t, err, &ve) {
				assert.Len(t, ve.Fields, len(tt.wantFields))
				for _, f := range tt.wantFields {
					assert.Contains(t, ve.Fields, f)
				}
			}
		})
	}
}

func TestBookingRequest_Validate_ErrorCode(t *testing.T) {
	b := BookingRequest{}
	err := b.Validate()

	assert.Equal(t, EINVALID, ErrorCode(err))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Summary())
}

func TestBookingRequest_DisplayHelpers(t *testing.T) {
	empty := BookingRequest{}
	assert.Equal(t, "Not provided", empty.PhoneDisplay())
	assert.Equal(t, "Not specified", empty.GuestsDisplay())
	assert.Equal(t, "To be confirmed", empty.GuestsConfirmDisplay())
	assert.Equal(t, "Not specified", empty.LocationDisplay())
	assert.Equal(t, "No additional message", empty.MessageDisplay())
	assert.Equal(t, "No specific preferences", empty.PreferencesDisplay())

	full := BookingRequest{
		Phone:         "(876) 555-0199",
		Guests:        "120",
		EventLocation: "Ocho Rios",
		Message:       "Beach theme",
		Preferences:   []string{"Rum Punch", "Fresh Juice"},
	}
	assert.Equal(t, "(876) 555-0199", full.PhoneDisplay())
	assert.Equal(t, "120", full.GuestsDisplay())
	assert.Equal(t, "120", full.GuestsConfirmDisplay())
	assert.Equal(t, "Ocho Rios", full.LocationDisplay())
	assert.Equal(t, "Beach theme", full.MessageDisplay())
	assert.Equal(t, "Rum Punch, Fresh Juice", full.PreferencesDisplay())
}

func TestBookingRequest_EventDay(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		want  string
		valid bool
	}{
		{"iso date", "2026-10-10", "2026-10-10", true},
		{"us date", "10/04/2026", "2026-10-04", true},
		{"long form", "4 October 2026", "2026-10-04", true},
		{"garbage", "next friday", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BookingRequest{EventDate: tt.date}
			day, ok := b.EventDay()
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, day.Format("2006-01-02"))
			}
		})
	}
}

func TestAllowedAttachmentExt(t *testing.T) {
	for _, ext := range []string{".jpg", ".JPG", ".jpeg", ".png", ".webp", ".gif", ".pdf", ".doc", ".docx"} {
		assert.True(t, AllowedAttachmentExt(ext), ext)
	}
	for _, ext := range []string{".exe", ".sh", ".js", ".zip", "", "jpg"} {
		assert.False(t, AllowedAttachmentExt(ext), ext)
	}
}
