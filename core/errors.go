package core

import (
	"errors"
	"fmt"
)

// User errors
var (
	ErrUserExists         = errors.New("email already in use")          // 409 Conflict
	ErrUserNotFound       = errors.New("user not found")                // 401 at the auth boundary
	ErrInvalidCredentials = errors.New("invalid credentials")           // 401 Unauthorized
	ErrCurrentPassword    = errors.New("current password is incorrect") // 400
	ErrInvalidRole        = errors.New("invalid role")                  // 400
	ErrInvalidUserID      = errors.New("invalid user id")               // 400
	ErrTargetNotFound     = errors.New("target user not found")         // 404 for admin operations
)

// Session errors
var (
	ErrNotAuthenticated = errors.New("not authenticated") // 401
	ErrSessionExpired   = errors.New("session expired")   // 401
	ErrInvalidToken     = errors.New("invalid token")     // 401
	ErrForbidden        = errors.New("forbidden")         // 403

	// Both wrap ErrInvalidToken so callers that don't care can match once.
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
)

// Config errors (server-side configuration)
var (
	ErrStoreRequired       = errors.New("user store is required") // 500
	ErrHTTPAdapterRequired = errors.New("adapter is required")    // 500
	ErrSecretRequired      = errors.New("secret is required")     // 500
	ErrSecretTooShort      = errors.New("secret too short")       // 500
	ErrInvalidTTL          = errors.New("token ttl must be positive")
)
