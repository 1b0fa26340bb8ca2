package core

import "errors"

// Kind separates the failure classes a caller must be able to tell apart
// even when they share an external status.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindInternal       Kind = "internal"
)

// Category is the machine-checkable reason attached to a rejection.
type Category string

const (
	CategoryNotAuthenticated   Category = "not_authenticated"
	CategorySessionExpired     Category = "session_expired"
	CategoryInvalidToken       Category = "invalid_token"
	CategoryForbidden          Category = "forbidden"
	CategoryNotFound           Category = "not_found"
	CategoryInvalidCredentials Category = "invalid_credentials"
	CategoryConflict           Category = "conflict"
	CategoryValidation         Category = "validation"
	CategoryInternal           Category = "internal"
)

// Rejection is the outcome rendered to a caller for any failed operation.
// It never carries internal error detail.
type Rejection struct {
	Kind     Kind
	Category Category
	Message  string
	Issues   []Issue
}

// RejectionFor classifies err. Anything unrecognized becomes an internal
// rejection with a generic message.
func RejectionFor(err error) Rejection {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return Rejection{Kind: KindValidation, Category: CategoryValidation, Message: ve.Message, Issues: ve.Issues}
	case errors.Is(err, ErrInvalidUserID):
		return Rejection{Kind: KindValidation, Category: CategoryValidation, Message: "Invalid user id"}
	case errors.Is(err, ErrCurrentPassword):
		return Rejection{Kind: KindValidation, Category: CategoryValidation, Message: "Current password is incorrect",
			Issues: []Issue{{Field: "currentPassword", Message: "Current password is incorrect"}}}
	case errors.Is(err, ErrUserExists):
		return Rejection{Kind: KindConflict, Category: CategoryConflict, Message: "Email already in use"}

	case errors.Is(err, ErrNotAuthenticated):
		return Rejection{Kind: KindAuthentication, Category: CategoryNotAuthenticated, Message: "Not authenticated"}
	case errors.Is(err, ErrSessionExpired):
		return Rejection{Kind: KindAuthentication, Category: CategorySessionExpired, Message: "Session expired"}
	case errors.Is(err, ErrInvalidToken):
		return Rejection{Kind: KindAuthentication, Category: CategoryInvalidToken, Message: "Invalid token"}
	case errors.Is(err, ErrInvalidCredentials):
		return Rejection{Kind: KindAuthentication, Category: CategoryInvalidCredentials, Message: "Invalid credentials"}
	case errors.Is(err, ErrUserNotFound):
		// a valid token whose subject no longer resolves is an identity failure
		return Rejection{Kind: KindAuthentication, Category: CategoryNotFound, Message: "User not found"}

	case errors.Is(err, ErrTargetNotFound):
		return Rejection{Kind: KindNotFound, Category: CategoryNotFound, Message: "User not found"}
	case errors.Is(err, ErrForbidden):
		return Rejection{Kind: KindAuthorization, Category: CategoryForbidden, Message: "Forbidden"}
	}

	return Rejection{Kind: KindInternal, Category: CategoryInternal, Message: "Server error"}
}
