package core

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lborres/bantay/pkg/crypto"
)

const (
	NameMinLength     = 2
	NameMaxLength     = 60
	PasswordMinLength = 8
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Issue is one field-level validation problem.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every issue found in one input, not just the first.
type ValidationError struct {
	Message string
	Issues  []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Issues collects validation problems for a single input.
type Issues []Issue

func (is *Issues) Add(field, message string) {
	*is = append(*is, Issue{Field: field, Message: message})
}

// Err returns nil when nothing was collected.
func (is Issues) Err(message string) error {
	if len(is) == 0 {
		return nil
	}
	return &ValidationError{Message: message, Issues: is}
}

// NormalizeEmail is applied before every lookup and write so that
// uniqueness is case-insensitive everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(is *Issues, field, name string) string {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		is.Add(field, "Name is required")
	case n < NameMinLength:
		is.Add(field, fmt.Sprintf("Name must be at least %d characters", NameMinLength))
	case n > NameMaxLength:
		is.Add(field, fmt.Sprintf("Name must be at most %d characters", NameMaxLength))
	}
	return name
}

func validateEmail(is *Issues, field, email string) string {
	email = NormalizeEmail(email)
	switch {
	case email == "":
		is.Add(field, "Email is required")
	case !emailPattern.MatchString(email):
		is.Add(field, "Please provide a valid email")
	}
	return email
}

// ValidatePasswordMin is the permissive rule used by registration and login.
func ValidatePasswordMin(is *Issues, field, password string) {
	switch {
	case password == "":
		is.Add(field, "Password is required")
	case utf8.RuneCountInString(password) < PasswordMinLength:
		is.Add(field, fmt.Sprintf("Min %d characters", PasswordMinLength))
	case len(password) > crypto.MaxPasswordBytes:
		is.Add(field, fmt.Sprintf("Max %d bytes", crypto.MaxPasswordBytes))
	}
}

// ValidatePasswordStrong is the full rule used by admin creation and every
// password change. Each failed clause is reported separately.
func ValidatePasswordStrong(is *Issues, field, password string) {
	ValidatePasswordMin(is, field, password)
	if password == "" {
		return
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	if !lower {
		is.Add(field, "Must contain a lowercase letter")
	}
	if !upper {
		is.Add(field, "Must contain an uppercase letter")
	}
	if !digit {
		is.Add(field, "Must contain a number")
	}
	if !symbol {
		is.Add(field, "Must contain a special character")
	}
}

func validateRole(is *Issues, field string, role *string) Role {
	if role == nil {
		return RoleUser
	}
	r, err := ParseRole(*role)
	if err != nil {
		is.Add(field, "Role must be one of user, admin")
		return ""
	}
	return r
}
