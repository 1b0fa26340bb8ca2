// Package memory is an in-process core.UserStorage for development and
// tests. Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lborres/bantay/core"
)

type record struct {
	user core.User
	seq  uint64 // insertion order, breaks CreatedAt ties
}

// Store keeps users in a map guarded by a RWMutex, with a second index on
// normalized email that enforces uniqueness.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*record
	byEmail map[string]string
	seq     uint64
	now     func() time.Time
}

var _ core.UserStorage = (*Store)(nil)

type Option func(*Store)

// WithClock sets the time source for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		byID:    make(map[string]*record),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(ctx context.Context, rec core.UserRecord) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(rec.Email)
	if _, taken := s.byEmail[key]; taken {
		return nil, core.ErrUserExists
	}

	now := s.now().UTC()
	s.seq++
	r := &record{
		seq: s.seq,
		user: core.User{
			ID:             uuid.NewString(),
			Name:           rec.Name,
			Email:          rec.Email,
			PasswordDigest: rec.PasswordDigest,
			Role:           rec.Role,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
	s.byID[r.user.ID] = r
	s.byEmail[key] = r.user.ID

	u := r.user
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.ErrInvalidUserID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	u := r.user
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	u := s.byID[id].user
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd core.UserUpdate) (*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, core.ErrInvalidUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}

	if upd.Email != nil {
		newKey := emailKey(*upd.Email)
		if owner, taken := s.byEmail[newKey]; taken && owner != id {
			return nil, core.ErrUserExists
		}
		delete(s.byEmail, emailKey(r.user.Email))
		s.byEmail[newKey] = id
		r.user.Email = *upd.Email
	}
	if upd.Name != nil {
		r.user.Name = *upd.Name
	}
	if upd.Role != nil {
		r.user.Role = *upd.Role
	}
	if upd.PasswordDigest != nil {
		r.user.PasswordDigest = *upd.PasswordDigest
	}
	r.user.UpdatedAt = s.now().UTC()

	u := r.user
	return &u, nil
}

// matching returns records that pass f, newest first. Caller holds the lock.
func (s *Store) matching(f core.UserFilter) []*record {
	q := strings.ToLower(f.Query)
	out := make([]*record, 0, len(s.byID))
	for _, r := range s.byID {
		if q == "" ||
			strings.Contains(strings.ToLower(r.user.Name), q) ||
			strings.Contains(strings.ToLower(r.user.Email), q) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.user.CreatedAt.Equal(b.user.CreatedAt) {
			return a.user.CreatedAt.After(b.user.CreatedAt)
		}
		return a.seq > b.seq
	})
	return out
}

func (s *Store) ListUsers(ctx context.Context, f core.UserFilter) ([]*core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.matching(f)
	users := make([]*core.User, 0, f.Limit)
	for i := f.Offset; i < len(all) && len(users) < f.Limit; i++ {
		u := all[i].user
		users = append(users, &u)
	}
	return users, nil
}

func (s *Store) CountUsers(ctx context.Context, f core.UserFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(f)), nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
