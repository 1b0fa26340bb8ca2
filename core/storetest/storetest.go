// Package storetest is a conformance suite for core.UserStorage
// implementations.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) core.UserStorage

// Run exercises every behavior the services rely on. missingID must be a
// well-formed id that no record has; malformedID one the store rejects
// outright, or "" when every string is a valid id.
func Run(t *testing.T, newStore Factory, missingID, malformedID string) {
	digest := testDigest(t)

	t.Run("create and read back", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateUser(ctx, core.UserRecord{
			Name: "Alice", Email: "alice@example.com", PasswordDigest: digest, Role: core.RoleUser,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		byID, err := s.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Name)
		assert.Equal(t, core.RoleUser, byID.Role)
		assert.Equal(t, digest.Encoded(), byID.PasswordDigest.Encoded())

		byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("email uniqueness is case-insensitive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateUser(ctx, core.UserRecord{Name: "A", Email: "dup@example.com", PasswordDigest: digest, Role: core.RoleUser})
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, core.UserRecord{Name: "B", Email: "DUP@example.com", PasswordDigest: digest, Role: core.RoleUser})
		assert.ErrorIs(t, err, core.ErrUserExists)
	})

	t.Run("missing records", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetUserByID(ctx, missingID)
		assert.ErrorIs(t, err, core.ErrUserNotFound)

		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, core.ErrUserNotFound)

		name := "Ghost"
		_, err = s.UpdateUser(ctx, missingID, core.UserUpdate{Name: &name})
		assert.ErrorIs(t, err, core.ErrUserNotFound)
	})

	if malformedID != "" {
		t.Run("malformed id", func(t *testing.T) {
			s := newStore(t)
			_, err := s.GetUserByID(context.Background(), malformedID)
			assert.ErrorIs(t, err, core.ErrInvalidUserID)
		})
	}

	t.Run("partial update", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		u, err := s.CreateUser(ctx, core.UserRecord{Name: "Carol", Email: "carol@example.com", PasswordDigest: digest, Role: core.RoleUser})
		require.NoError(t, err)

		admin := core.RoleAdmin
		updated, err := s.UpdateUser(ctx, u.ID, core.UserUpdate{Role: &admin})
		require.NoError(t, err)
		assert.Equal(t, core.RoleAdmin, updated.Role)
		assert.Equal(t, "Carol", updated.Name)
		assert.Equal(t, digest.Encoded(), updated.PasswordDigest.Encoded())

		other := testDigest(t)
		email := "carol2@example.com"
		updated, err = s.UpdateUser(ctx, u.ID, core.UserUpdate{Email: &email, PasswordDigest: &other})
		require.NoError(t, err)
		assert.Equal(t, email, updated.Email)
		assert.Equal(t, other.Encoded(), updated.PasswordDigest.Encoded())

		_, err = s.GetUserByEmail(ctx, "carol@example.com")
		assert.ErrorIs(t, err, core.ErrUserNotFound)
		reread, err := s.GetUserByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, core.RoleAdmin, reread.Role)
	})

	t.Run("update to a taken email", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateUser(ctx, core.UserRecord{Name: "Dan", Email: "dan@example.com", PasswordDigest: digest, Role: core.RoleUser})
		require.NoError(t, err)
		eve, err := s.CreateUser(ctx, core.UserRecord{Name: "Eve", Email: "eve@example.com", PasswordDigest: digest, Role: core.RoleUser})
		require.NoError(t, err)

		taken := "DAN@example.com"
		_, err = s.UpdateUser(ctx, eve.ID, core.UserUpdate{Email: &taken})
		assert.ErrorIs(t, err, core.ErrUserExists)

		same := "eve@example.com"
		_, err = s.UpdateUser(ctx, eve.ID, core.UserUpdate{Email: &same})
		assert.NoError(t, err, "keeping one's own email is not a conflict")
	})

	t.Run("list newest first with paging and search", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			_, err := s.CreateUser(ctx, core.UserRecord{
				Name:           fmt.Sprintf("Member %d", i),
				Email:          fmt.Sprintf("member%d@example.com", i),
				PasswordDigest: digest,
				Role:           core.RoleUser,
			})
			require.NoError(t, err)
			// distinct timestamps for stores with coarse clocks
			time.Sleep(2 * time.Millisecond)
		}
		_, err := s.CreateUser(ctx, core.UserRecord{Name: "Zed_%", Email: "zed@other.org", PasswordDigest: digest, Role: core.RoleAdmin})
		require.NoError(t, err)

		page, err := s.ListUsers(ctx, core.UserFilter{Offset: 0, Limit: 4})
		require.NoError(t, err)
		require.Len(t, page, 4)
		assert.Equal(t, "zed@other.org", page[0].Email)
		assert.Equal(t, "member4@example.com", page[1].Email)

		rest, err := s.ListUsers(ctx, core.UserFilter{Offset: 4, Limit: 4})
		require.NoError(t, err)
		require.Len(t, rest, 2)
		assert.Equal(t, "member0@example.com", rest[1].Email)

		total, err := s.CountUsers(ctx, core.UserFilter{})
		require.NoError(t, err)
		assert.Equal(t, 6, total)

		hits, err := s.ListUsers(ctx, core.UserFilter{Query: "MEMBER", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, hits, 5)

		hits, err = s.ListUsers(ctx, core.UserFilter{Query: "other.org", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, hits, 1)

		// pattern metacharacters are matched literally
		hits, err = s.ListUsers(ctx, core.UserFilter{Query: "_%", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, hits, 1)
		n, err := s.CountUsers(ctx, core.UserFilter{Query: ".*", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		empty, err := s.ListUsers(ctx, core.UserFilter{Offset: 100, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func testDigest(t *testing.T) crypto.Digest {
	t.Helper()
	encoded, err := (&crypto.Bcrypt{Cost: 4}).Hash("password1")
	require.NoError(t, err)
	return crypto.MustParseDigest(encoded)
}
