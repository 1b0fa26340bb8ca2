package core

import (
	"context"

	"github.com/lborres/bantay/pkg/crypto"
)

// UserRecord is what a store persists on create. It carries a digest, never
// a plaintext password.
type UserRecord struct {
	Name           string
	Email          string
	PasswordDigest crypto.Digest
	Role           Role
}

// UserUpdate is a partial write. Nil fields are left untouched.
type UserUpdate struct {
	Name           *string
	Email          *string
	Role           *Role
	PasswordDigest *crypto.Digest
}

func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil && u.PasswordDigest == nil
}

// UserFilter narrows a listing. Query is a case-insensitive substring
// matched against name or email; empty matches everything.
type UserFilter struct {
	Query  string
	Offset int
	Limit  int
}

// UserStorage defines user-related database operations
//
// Emails passed in are already normalized. Implementations must enforce
// case-insensitive email uniqueness themselves and report a violation as
// ErrUserExists; a missing record is ErrUserNotFound. Ids that cannot exist
// in the store's id space may be reported as ErrInvalidUserID.
type UserStorage interface {
	CreateUser(ctx context.Context, rec UserRecord) (*User, error)

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error)

	// ListUsers returns newest first.
	ListUsers(ctx context.Context, f UserFilter) ([]*User, error)
	CountUsers(ctx context.Context, f UserFilter) (int, error)
}
