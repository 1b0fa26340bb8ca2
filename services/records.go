package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
)

// UserRecords is the only code path that turns a plaintext password into a
// stored digest. Every create, self-service change and admin update funnels
// through it, so the store never receives plaintext.
type UserRecords struct {
	store  core.UserStorage
	hasher *crypto.Hasher

	dummyMu sync.Mutex
	dummy   crypto.Digest
}

func NewUserRecords(store core.UserStorage, hasher *crypto.Hasher) *UserRecords {
	return &UserRecords{store: store, hasher: hasher}
}

func (r *UserRecords) Create(ctx context.Context, nu core.NewUser) (*core.User, error) {
	digest, err := r.hasher.Hash(ctx, nu.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := nu.Role
	if role == "" {
		role = core.RoleUser
	}

	user, err := r.store.CreateUser(ctx, core.UserRecord{
		Name:           nu.Name,
		Email:          core.NormalizeEmail(nu.Email),
		PasswordDigest: digest,
		Role:           role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update applies a partial change. A password in c is hashed first, even
// when it is the only field being touched.
func (r *UserRecords) Update(ctx context.Context, id string, c core.Changes) (*core.User, error) {
	upd := core.UserUpdate{
		Name: c.Name,
		Role: c.Role,
	}
	if c.Email != nil {
		email := core.NormalizeEmail(*c.Email)
		upd.Email = &email
	}
	if c.Password != nil {
		digest, err := r.hasher.Hash(ctx, *c.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		upd.PasswordDigest = &digest
	}

	user, err := r.store.UpdateUser(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (r *UserRecords) SetPassword(ctx context.Context, id, password string) error {
	_, err := r.Update(ctx, id, core.Changes{Password: &password})
	return err
}

func (r *UserRecords) VerifyPassword(ctx context.Context, u *core.User, password string) (bool, error) {
	ok, err := r.hasher.Verify(ctx, password, u.PasswordDigest)
	if err != nil {
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return ok, nil
}

// VerifyMissing burns one verification against a throwaway digest, so a
// login for an unknown email takes as long as one with a wrong password.
func (r *UserRecords) VerifyMissing(ctx context.Context, password string) {
	dummy, err := r.dummyDigest(ctx)
	if err != nil {
		return
	}
	_, _ = r.hasher.Verify(ctx, password, dummy)
}

// dummyDigest builds the throwaway digest on first use. The hash is detached
// from ctx cancellation and a failed attempt is retried on the next call.
func (r *UserRecords) dummyDigest(ctx context.Context) (crypto.Digest, error) {
	r.dummyMu.Lock()
	defer r.dummyMu.Unlock()

	if !r.dummy.IsZero() {
		return r.dummy, nil
	}
	throwaway, err := crypto.RandomString(18)
	if err != nil {
		return crypto.Digest{}, err
	}
	d, err := r.hasher.Hash(context.WithoutCancel(ctx), throwaway)
	if err != nil {
		return crypto.Digest{}, err
	}
	r.dummy = d
	return d, nil
}
