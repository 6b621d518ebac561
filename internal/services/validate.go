package services

import (
	"context"
	"net/mail"
	"regexp"
)

const maxFieldLength = 64

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

// FieldError describes one rejected field of a submitted form.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects the field errors of one validation pass.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// OK reports whether validation passed.
func (v ValidationResult) OK() bool {
	return len(v.Errors) == 0
}

func (v *ValidationResult) add(field, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message})
}

// AccountReader is the read-only store view validation runs against.
type AccountReader interface {
	EmailExists(ctx context.Context, email string, excludeID int) (bool, error)
	UsernameExists(ctx context.Context, username string, excludeID int) (bool, error)
}

// ValidateRegistration checks a registration submission: email and
// username format plus uniqueness against the account store. excludeID
// is zero for new registrations and the account's own id for profile
// edits, so an account never collides with itself.
func ValidateRegistration(ctx context.Context, accounts AccountReader, email, username, password string, excludeID int) (ValidationResult, error) {
	var result ValidationResult

	validateEmailField(&result, email)
	validateUsernameField(&result, username)
	if password == "" {
		result.add("password", "password is required")
	}
	if !result.OK() {
		return result, nil
	}

	taken, err := accounts.EmailExists(ctx, email, excludeID)
	if err != nil {
		return ValidationResult{}, err
	}
	if taken {
		result.add("email", "email already exists")
	}

	taken, err = accounts.UsernameExists(ctx, username, excludeID)
	if err != nil {
		return ValidationResult{}, err
	}
	if taken {
		result.add("username", "username already in use")
	}
	return result, nil
}

// ValidateNewEmail checks a candidate address for the email-change flow.
func ValidateNewEmail(ctx context.Context, accounts AccountReader, email string, excludeID int) (ValidationResult, error) {
	var result ValidationResult

	validateEmailField(&result, email)
	if !result.OK() {
		return result, nil
	}

	taken, err := accounts.EmailExists(ctx, email, excludeID)
	if err != nil {
		return ValidationResult{}, err
	}
	if taken {
		result.add("email", "email already exists")
	}
	return result, nil
}

func validateEmailField(result *ValidationResult, email string) {
	if email == "" {
		result.add("email", "email is required")
		return
	}
	if len(email) > maxFieldLength {
		result.add("email", "email is too long")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		result.add("email", "invalid email address")
	}
}

func validateUsernameField(result *ValidationResult, username string) {
	if username == "" {
		result.add("username", "username is required")
		return
	}
	if len(username) > maxFieldLength {
		result.add("username", "username is too long")
		return
	}
	if !usernamePattern.MatchString(username) {
		result.add("username", "usernames can only have letters, numbers, dots or underscores")
	}
}
