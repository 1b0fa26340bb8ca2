package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requirement: Register creates a user with the default role, stores only a digest, and signs them in.
func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name      string
		input     core.RegisterInput
		setup     func(*fixture)
		wantErr   error
		wantIssue string
	}{
		{
			name:  "creates user and token for valid input",
			input: core.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "password1"},
		},
		{
			name:  "accepts a password that only meets the length rule",
			input: core.RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "aaaaaaaa"},
		},
		{
			name:      "rejects short password",
			input:     core.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "short"},
			wantIssue: "password",
		},
		{
			name:      "rejects bad email",
			input:     core.RegisterInput{Name: "Alice", Email: "alice", Password: "password1"},
			wantIssue: "email",
		},
		{
			name:      "rejects one character name",
			input:     core.RegisterInput{Name: "A", Email: "alice@example.com", Password: "password1"},
			wantIssue: "name",
		},
		{
			name:  "rejects duplicate email regardless of case",
			input: core.RegisterInput{Name: "Alice", Email: "ALICE@example.com", Password: "password1"},
			setup: func(f *fixture) {
				f.seed(t, "Alice", "alice@example.com", "password1", core.RoleUser)
			},
			wantErr: core.ErrUserExists,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)
			if test.setup != nil {
				test.setup(f)
			}

			// Act
			result, err := f.auth.Register(context.Background(), test.input)

			// Assert
			if test.wantIssue != "" {
				var ve *core.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, test.wantIssue, ve.Issues[0].Field)
				return
			}
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, core.RoleUser, result.User.Role)
			assert.Equal(t, strings.ToLower(test.input.Email), result.User.Email)

			claim, err := f.tokens.Verify(result.Token)
			require.NoError(t, err)
			assert.Equal(t, result.User.ID, claim.UserID)

			stored := f.store.created[len(f.store.created)-1]
			assert.NotEqual(t, test.input.Password, stored.PasswordDigest.Encoded())
			assert.Equal(t, crypto.SchemeBcrypt, stored.PasswordDigest.Scheme())

			f.assertNoSecretsLogged(t, test.input.Password, result.Token)
		})
	}
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	f := newFixture(t)

	result, err := f.auth.Register(context.Background(), core.RegisterInput{
		Name:     "  Alice  ",
		Email:    "  Alice@Example.COM ",
		Password: "password1",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, "Alice", result.User.Name)
}

// Requirement: Login answers unknown email and wrong password identically.
func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		getErr   error
		wantErr  error
	}{
		{name: "signs in with valid credentials", email: "alice@example.com", password: "password1"},
		{name: "email match is case-insensitive", email: "ALICE@example.com", password: "password1"},
		{name: "wrong password", email: "alice@example.com", password: "password2", wantErr: core.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "password1", wantErr: core.ErrInvalidCredentials},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)
			alice := f.seed(t, "Alice", "alice@example.com", "password1", core.RoleUser)

			// Act
			result, err := f.auth.Login(context.Background(), core.LoginInput{Email: test.email, Password: test.password})

			// Assert
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				assert.Equal(t, "invalid credentials", err.Error())
				assert.Nil(t, result)
				f.assertNoSecretsLogged(t, test.password)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, alice.ID, result.User.ID)
			assert.NotEmpty(t, result.Token)
		})
	}
}

func TestAuthService_Login_StoreFailureIsNotCredentials(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = errors.New("connection reset")

	_, err := f.auth.Login(context.Background(), core.LoginInput{Email: "alice@example.com", Password: "password1"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrInvalidCredentials)
	assert.Equal(t, core.KindInternal, core.RejectionFor(err).Kind)
}

func TestAuthService_Login_ValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Login(context.Background(), core.LoginInput{Email: "", Password: ""})

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Issues, 2)
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture(t)
	alice := f.seed(t, "Alice", "alice@example.com", "password1", core.RoleUser)

	t.Run("returns bound user", func(t *testing.T) {
		u, err := f.auth.Me(as(alice.ID))
		require.NoError(t, err)
		assert.Equal(t, alice.Email, u.Email)
	})

	t.Run("requires a bound identity", func(t *testing.T) {
		_, err := f.auth.Me(context.Background())
		assert.ErrorIs(t, err, core.ErrNotAuthenticated)
	})

	t.Run("deleted user is not found", func(t *testing.T) {
		f.store.deleteUser(alice.ID)
		_, err := f.auth.Me(as(alice.ID))
		assert.ErrorIs(t, err, core.ErrUserNotFound)
	})
}

// Requirement: register, login and me compose into one identity.
func TestAuthService_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, core.RegisterInput{Name: "Alice", Email: "a@x.io", Password: "password1"})
	require.NoError(t, err)

	login, err := f.auth.Login(ctx, core.LoginInput{Email: "a@x.io", Password: "password1"})
	require.NoError(t, err)

	authed, err := f.guard.Authenticate(ctx, login.Token)
	require.NoError(t, err)

	me, err := f.auth.Me(authed)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, me.ID)
	assert.Equal(t, core.RoleUser, me.Role)
}
