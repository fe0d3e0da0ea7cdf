package domain

import "strings"

// ContactMessage represents a submission of the general contact form.
// All four fields are required.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Validate checks the required fields and the email shape.
// It returns a *ValidationError naming every failing field, or nil.
func (c *ContactMessage) Validate() error {
	const op = "contact.validate"

	var ve *ValidationError
	add := func(field, message string) {
		if ve == nil {
			ve = NewValidationError(op, field, message)
			return
		}
		ve.Fields[field] = message
	}

	if strings.TrimSpace(c.Name) == "" {
		add("name", "Please provide your name.")
	}
	switch {
	case strings.TrimSpace(c.Email) == "":
		add("email", "Please provide your email address.")
	case !ValidEmail(strings.TrimSpace(c.Email)):
		add("email", "Please provide a valid email address.")
	}
	if strings.TrimSpace(c.Subject) == "" {
		add("subject", "Please provide a subject.")
	}
	if strings.TrimSpace(c.Message) == "" {
		add("message", "Please write a message.")
	}

	if ve != nil {
		return ve
	}
	return nil
}
