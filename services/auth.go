package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lborres/bantay/core"
	"github.com/sirupsen/logrus"
)

type AuthService struct {
	users   core.UserStorage
	records *UserRecords
	tokens  *TokenService
	log     logrus.FieldLogger
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

func NewAuthService(users core.UserStorage, records *UserRecords, tokens *TokenService, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:   users,
		records: records,
		tokens:  tokens,
		log:     log.WithField("component", "auth"),
	}
}

// Register creates a user with the default role and signs them in.
// The requested role, if any, is ignored.
func (s *AuthService) Register(ctx context.Context, input core.RegisterInput) (*core.AuthResult, error) {
	// Step 1: Validate and normalize
	input, err := input.Validate()
	if err != nil {
		return nil, err
	}

	// Step 2: Hash and persist; uniqueness is enforced by the store
	user, err := s.records.Create(ctx, core.NewUser{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     core.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	// Step 3: Issue a session token
	token, claim, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")

	return &core.AuthResult{User: user, Token: token, Claim: claim}, nil
}

// Login never reveals whether the email exists: an unknown email and a
// wrong password both produce core.ErrInvalidCredentials after the same
// amount of hashing work.
func (s *AuthService) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	input, err := input.Validate()
	if err != nil {
		return nil, err
	}

	// Step 1: Find the user by email
	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			s.records.VerifyMissing(ctx, input.Password)
			s.log.Debug("login rejected: unknown email")
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Step 2: Verify the password
	valid, err := s.records.VerifyPassword(ctx, user, input.Password)
	if err != nil {
		return nil, err
	}
	if !valid {
		s.log.WithField("user_id", user.ID).Debug("login rejected: password mismatch")
		return nil, core.ErrInvalidCredentials
	}

	// Step 3: Issue a session token
	token, claim, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")

	return &core.AuthResult{User: user, Token: token, Claim: claim}, nil
}

// Me loads the user bound to ctx by the authentication step.
func (s *AuthService) Me(ctx context.Context) (*core.User, error) {
	return currentUser(ctx, s.users)
}

func currentUser(ctx context.Context, users core.UserStorage) (*core.User, error) {
	id, ok := core.UserIDFrom(ctx)
	if !ok {
		return nil, core.ErrNotAuthenticated
	}

	user, err := users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) || errors.Is(err, core.ErrInvalidUserID) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
