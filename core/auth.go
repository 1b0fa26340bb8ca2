package core

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// RegisterInput contains the data needed to register a new user
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate applies the permissive password rule on purpose: self-service
// registration only checks length, unlike admin creation and password change.
func (in RegisterInput) Validate() (RegisterInput, error) {
	var is Issues
	in.Name = validateName(&is, "name", in.Name)
	in.Email = validateEmail(&is, "email", in.Email)
	ValidatePasswordMin(&is, "password", in.Password)
	return in, is.Err("Invalid input")
}

// LoginInput contains the credentials for authentication
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() (LoginInput, error) {
	var is Issues
	in.Email = validateEmail(&is, "email", in.Email)
	ValidatePasswordMin(&is, "password", in.Password)
	return in, is.Err("Invalid input")
}

// UpdateProfileInput is a partial update of the caller's own profile.
type UpdateProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (in UpdateProfileInput) Validate() (Changes, error) {
	var is Issues
	var c Changes
	if in.Name != nil {
		name := validateName(&is, "name", *in.Name)
		c.Name = &name
	}
	if in.Email != nil {
		email := validateEmail(&is, "email", *in.Email)
		c.Email = &email
	}
	if c.Empty() {
		is.Add("", "Nothing to update")
	}
	return c, is.Err("Invalid input")
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (in ChangePasswordInput) Validate() error {
	var is Issues
	if len([]rune(in.CurrentPassword)) < PasswordMinLength {
		is.Add("currentPassword", "Current password is required")
	}
	ValidatePasswordStrong(&is, "newPassword", in.NewPassword)
	if in.NewPassword == in.CurrentPassword {
		is.Add("newPassword", "New password must be different from current")
	}
	return is.Err("Invalid input")
}

// CreateUserInput is the admin payload for creating an account.
type CreateUserInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     *string `json:"role,omitempty"`
}

func (in CreateUserInput) Validate() (NewUser, error) {
	var is Issues
	u := NewUser{
		Name:     validateName(&is, "name", in.Name),
		Email:    validateEmail(&is, "email", in.Email),
		Password: in.Password,
		Role:     validateRole(&is, "role", in.Role),
	}
	ValidatePasswordStrong(&is, "password", in.Password)
	return u, is.Err("Invalid input")
}

// UpdateUserInput is the admin partial update. A password, when present,
// goes through the same hashing path as every other password write.
type UpdateUserInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (in UpdateUserInput) Validate() (Changes, error) {
	var is Issues
	var c Changes
	if in.Name != nil {
		name := validateName(&is, "name", *in.Name)
		c.Name = &name
	}
	if in.Email != nil {
		email := validateEmail(&is, "email", *in.Email)
		c.Email = &email
	}
	if in.Role != nil {
		role := validateRole(&is, "role", in.Role)
		c.Role = &role
	}
	if in.Password != nil {
		ValidatePasswordStrong(&is, "password", *in.Password)
		pw := *in.Password
		c.Password = &pw
	}
	if c.Empty() {
		is.Add("", "Nothing to update")
	}
	return c, is.Err("Invalid input")
}

// ListUsersInput selects one page of users. Callers fill absent values
// with DefaultPage and DefaultLimit.
type ListUsersInput struct {
	Page  int
	Limit int
	Query string
}

func (in ListUsersInput) Validate() (ListUsersInput, error) {
	var is Issues
	if in.Page < 1 {
		is.Add("page", "Page must be at least 1")
	}
	if in.Limit < 1 || in.Limit > MaxLimit {
		is.Add("limit", "Limit must be between 1 and 100")
	}
	in.Query = strings.TrimSpace(in.Query)
	return in, is.Err("Invalid query")
}

// NewUser is the plaintext-bearing request to create a user record.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     Role
}

// Changes is a partial user update as requested by a caller. Password is
// plaintext here; it only reaches a store after hashing.
type Changes struct {
	Name     *string
	Email    *string
	Role     *Role
	Password *string
}

func (c Changes) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Role == nil && c.Password == nil
}

// AuthResult is the outcome of register or login
type AuthResult struct {
	User  *User
	Token string
	Claim *IdentityClaim
}
