package services

import (
	"context"
	"errors"

	"github.com/lborres/bantay/core"
	"github.com/sirupsen/logrus"
)

// ProfileService lets an authenticated user read and change their own record.
type ProfileService struct {
	users   core.UserStorage
	records *UserRecords
	log     logrus.FieldLogger
}

var _ core.ProfileHandler = (*ProfileService)(nil)

func NewProfileService(users core.UserStorage, records *UserRecords, log logrus.FieldLogger) *ProfileService {
	return &ProfileService{
		users:   users,
		records: records,
		log:     log.WithField("component", "profile"),
	}
}

func (s *ProfileService) GetProfile(ctx context.Context) (*core.User, error) {
	return currentUser(ctx, s.users)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, input core.UpdateProfileInput) (*core.User, error) {
	id, ok := core.UserIDFrom(ctx)
	if !ok {
		return nil, core.ErrNotAuthenticated
	}

	changes, err := input.Validate()
	if err != nil {
		return nil, err
	}

	user, err := s.records.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, core.ErrInvalidUserID) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}

	s.log.WithField("user_id", id).Info("profile updated")
	return user, nil
}

// ChangePassword requires proof of the current password before the new one
// is hashed and stored.
func (s *ProfileService) ChangePassword(ctx context.Context, input core.ChangePasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	user, err := currentUser(ctx, s.users)
	if err != nil {
		return err
	}

	valid, err := s.records.VerifyPassword(ctx, user, input.CurrentPassword)
	if err != nil {
		return err
	}
	if !valid {
		return core.ErrCurrentPassword
	}

	if err := s.records.SetPassword(ctx, user.ID, input.NewPassword); err != nil {
		return err
	}

	s.log.WithField("user_id", user.ID).Info("password changed")
	return nil
}
