package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lborres/bantay/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AdminService manages other users' records. Callers must already have
// passed authorization for core.RoleAdmin.
type AdminService struct {
	users   core.UserStorage
	records *UserRecords
	log     logrus.FieldLogger
}

var _ core.AdminHandler = (*AdminService)(nil)

func NewAdminService(users core.UserStorage, records *UserRecords, log logrus.FieldLogger) *AdminService {
	return &AdminService{
		users:   users,
		records: records,
		log:     log.WithField("component", "admin"),
	}
}

func (s *AdminService) ListUsers(ctx context.Context, input core.ListUsersInput) ([]*core.User, core.ListMeta, error) {
	input, err := input.Validate()
	if err != nil {
		return nil, core.ListMeta{}, err
	}

	filter := core.UserFilter{
		Query:  input.Query,
		Offset: (input.Page - 1) * input.Limit,
		Limit:  input.Limit,
	}

	var (
		users []*core.User
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.ListUsers(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.users.CountUsers(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, core.ListMeta{}, fmt.Errorf("failed to list users: %w", err)
	}

	return users, core.ListMeta{
		Page:  input.Page,
		Limit: input.Limit,
		Total: total,
		Pages: pageCount(total, input.Limit),
	}, nil
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

func (s *AdminService) CreateUser(ctx context.Context, input core.CreateUserInput) (*core.User, error) {
	nu, err := input.Validate()
	if err != nil {
		return nil, err
	}

	user, err := s.records.Create(ctx, nu)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actor(ctx),
		"user_id":  user.ID,
		"role":     user.Role,
	}).Info("user created by admin")
	return user, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, id string, input core.UpdateUserInput) (*core.User, error) {
	changes, err := input.Validate()
	if err != nil {
		return nil, err
	}

	user, err := s.records.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrTargetNotFound
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":         actor(ctx),
		"user_id":          user.ID,
		"password_changed": changes.Password != nil,
	}).Info("user updated by admin")
	return user, nil
}

func actor(ctx context.Context) string {
	id, _ := core.UserIDFrom(ctx)
	return id
}
