package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// FakeUserStorage is a test-only fake implementing core.UserStorage.
// It keeps users in a map, records every write it receives, and exposes
// error fields for behavior injection.
type FakeUserStorage struct {
	mu      sync.RWMutex
	users   map[string]*core.User
	seq     int
	base    time.Time
	created []core.UserRecord
	updates []core.UserUpdate

	createErr error
	getErr    error
	updateErr error
	listErr   error
	countErr  error
}

var _ core.UserStorage = (*FakeUserStorage)(nil)

func NewFakeUserStorage() *FakeUserStorage {
	return &FakeUserStorage{
		users: make(map[string]*core.User),
		base:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *FakeUserStorage) CreateUser(_ context.Context, rec core.UserRecord) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, rec.Email) {
			return nil, core.ErrUserExists
		}
	}

	f.created = append(f.created, rec)
	f.seq++
	now := f.base.Add(time.Duration(f.seq) * time.Second)
	u := &core.User{
		ID:             fmt.Sprintf("user-%d", f.seq),
		Name:           rec.Name,
		Email:          rec.Email,
		PasswordDigest: rec.PasswordDigest,
		Role:           rec.Role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *FakeUserStorage) GetUserByID(_ context.Context, id string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *FakeUserStorage) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeUserStorage) UpdateUser(_ context.Context, id string, upd core.UserUpdate) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	if upd.Email != nil {
		for _, other := range f.users {
			if other.ID != id && strings.EqualFold(other.Email, *upd.Email) {
				return nil, core.ErrUserExists
			}
		}
	}

	f.updates = append(f.updates, upd)
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordDigest != nil {
		u.PasswordDigest = *upd.PasswordDigest
	}
	u.UpdatedAt = u.UpdatedAt.Add(time.Second)
	cp := *u
	return &cp, nil
}

func (f *FakeUserStorage) matching(q string) []*core.User {
	q = strings.ToLower(q)
	var out []*core.User
	for _, u := range f.users {
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *FakeUserStorage) ListUsers(_ context.Context, filter core.UserFilter) ([]*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.matching(filter.Query)
	if filter.Offset >= len(all) {
		return []*core.User{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (f *FakeUserStorage) CountUsers(_ context.Context, filter core.UserFilter) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.matching(filter.Query)), nil
}

func (f *FakeUserStorage) deleteUser(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

func (f *FakeUserStorage) setRole(id string, role core.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].Role = role
}

// ============================================
// FIXTURE
// ============================================

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   *FakeUserStorage
	clock   *fakeClock
	logs    *test.Hook
	tokens  *TokenService
	records *UserRecords
	auth    *AuthService
	guard   *GuardService
	profile *ProfileService
	admin   *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := NewTokenService([]byte(testSecret), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	store := NewFakeUserStorage()
	// minimum bcrypt cost keeps the suite fast
	hasher := crypto.NewHasher(&crypto.Bcrypt{Cost: 4})
	records := NewUserRecords(store, hasher)

	return &fixture{
		store:   store,
		clock:   clock,
		logs:    hook,
		tokens:  tokens,
		records: records,
		auth:    NewAuthService(store, records, tokens, logger),
		guard:   NewGuardService(tokens, store, logger),
		profile: NewProfileService(store, records, logger),
		admin:   NewAdminService(store, records, logger),
	}
}

// seed creates a user through the hashing path and returns it.
func (f *fixture) seed(t *testing.T, name, email, password string, role core.Role) *core.User {
	t.Helper()
	u, err := f.records.Create(context.Background(), core.NewUser{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

// as returns a context authenticated as user id.
func as(id string) context.Context {
	return core.WithUserID(context.Background(), id)
}

// assertNoSecretsLogged fails if any log entry mentions one of secrets.
func (f *fixture) assertNoSecretsLogged(t *testing.T, secrets ...string) {
	t.Helper()
	for _, entry := range f.logs.AllEntries() {
		line := entry.Message + " " + fmt.Sprint(entry.Data)
		for _, s := range secrets {
			require.NotContains(t, line, s)
		}
	}
}
