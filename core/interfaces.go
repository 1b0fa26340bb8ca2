package core

import (
	"context"
	"time"
)

// Ports the HTTP adapter consumes. Handlers are transport-agnostic; the
// adapter owns cookies, binding and rendering.

// ============================================
// SESSION CONFIG
// ============================================

const DefaultCookieName = "access_token"

// SessionConfig is shared by the token service and the cookie transport so
// token lifetime and cookie max-age cannot drift apart.
type SessionConfig struct {
	TTL        time.Duration
	CookieName string
	Domain     string
	Secure     bool
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:        2 * time.Hour,
		CookieName: DefaultCookieName,
	}
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides authentication operations for HTTP adapters
type AuthHandler interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Me(ctx context.Context) (*User, error)
}

// Guard is the per-request identity and role pipeline.
type Guard interface {
	// Authenticate verifies a raw token and returns ctx with the user id bound.
	Authenticate(ctx context.Context, token string) (context.Context, error)
	// Authorize re-reads the bound user's role and returns ctx with it bound.
	Authorize(ctx context.Context, allowed ...Role) (context.Context, error)
}

// ProfileHandler serves the caller's own record.
type ProfileHandler interface {
	GetProfile(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*User, error)
	ChangePassword(ctx context.Context, input ChangePasswordInput) error
}

// AdminHandler serves user management for administrators.
type AdminHandler interface {
	ListUsers(ctx context.Context, input ListUsersInput) ([]*User, ListMeta, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*User, error)
}

// ============================================
// HTTP PORT
// ============================================

// Handlers bundles everything an HTTP adapter needs to mount routes.
type Handlers struct {
	Auth     AuthHandler
	Guard    Guard
	Profile  ProfileHandler
	Admin    AdminHandler
	Session  SessionConfig
	BasePath string
}

type HTTPAdapter interface {
	RegisterRoutes(h Handlers) error
}
