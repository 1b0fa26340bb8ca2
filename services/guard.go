package services

import (
	"context"
	"slices"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
	"github.com/sirupsen/logrus"
)

// GuardService authenticates a raw token and authorizes the resulting
// identity against a role set. Roles are re-read from the store on every
// call, so a role change takes effect on the next request.
type GuardService struct {
	tokens *TokenService
	users  core.UserStorage
	log    logrus.FieldLogger
}

var _ core.Guard = (*GuardService)(nil)

func NewGuardService(tokens *TokenService, users core.UserStorage, log logrus.FieldLogger) *GuardService {
	return &GuardService{
		tokens: tokens,
		users:  users,
		log:    log.WithField("component", "guard"),
	}
}

func (g *GuardService) Authenticate(ctx context.Context, token string) (context.Context, error) {
	if token == "" {
		return ctx, core.ErrNotAuthenticated
	}

	claim, err := g.tokens.Verify(token)
	if err != nil {
		g.log.WithError(err).WithField("token_fp", crypto.Fingerprint(token)).Debug("token rejected")
		return ctx, err
	}

	return core.WithUserID(ctx, claim.UserID), nil
}

func (g *GuardService) Authorize(ctx context.Context, allowed ...core.Role) (context.Context, error) {
	user, err := currentUser(ctx, g.users)
	if err != nil {
		return ctx, err
	}

	if !slices.Contains(allowed, user.Role) {
		g.log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"role":    user.Role,
		}).Info("access denied")
		return ctx, core.ErrForbidden
	}

	return core.WithRole(ctx, user.Role), nil
}
