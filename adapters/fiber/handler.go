package fiber

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/metrics"
)

// envelope is the body of every response except listings.
type envelope struct {
	OK       bool             `json:"ok"`
	Message  string           `json:"message,omitempty"`
	Category core.Category    `json:"category,omitempty"`
	Issues   []core.Issue     `json:"issues,omitempty"`
	User     *core.PublicUser `json:"user,omitempty"`
}

type listEnvelope struct {
	OK    bool              `json:"ok"`
	Users []core.PublicUser `json:"users"`
	Meta  core.ListMeta     `json:"meta"`
}

func userEnvelope(u *core.User) envelope {
	pub := u.Public()
	return envelope{OK: true, User: &pub}
}

var errInvalidBody = &core.ValidationError{
	Message: "Invalid input",
	Issues:  []core.Issue{{Field: "", Message: "Request body must be a JSON object"}},
}

func (a *Adapter) register(c fiber.Ctx) error {
	var input core.RegisterInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleError(c, errInvalidBody)
	}

	result, err := a.h.Auth.Register(c.Context(), input)
	if err != nil {
		return a.handleError(c, err)
	}

	a.cookies.Attach(c, result.Token)
	a.metrics.RecordRegistration()
	return c.Status(http.StatusCreated).JSON(userEnvelope(result.User))
}

func (a *Adapter) login(c fiber.Ctx) error {
	var input core.LoginInput
	if err := c.Bind().Body(&input); err != nil {
		a.metrics.RecordLogin(metrics.LoginInvalid)
		return a.handleError(c, errInvalidBody)
	}

	result, err := a.h.Auth.Login(c.Context(), input)
	if err != nil {
		a.metrics.RecordLogin(loginOutcome(err))
		return a.handleError(c, err)
	}

	a.cookies.Attach(c, result.Token)
	a.metrics.RecordLogin(metrics.LoginSuccess)
	return c.Status(http.StatusOK).JSON(userEnvelope(result.User))
}

func loginOutcome(err error) string {
	var ve *core.ValidationError
	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		return metrics.LoginRejected
	case errors.As(err, &ve):
		return metrics.LoginInvalid
	}
	return metrics.LoginError
}

func (a *Adapter) logout(c fiber.Ctx) error {
	a.cookies.Detach(c)
	return c.JSON(envelope{OK: true, Message: "Logged out"})
}

func (a *Adapter) me(c fiber.Ctx) error {
	user, err := a.h.Auth.Me(c.Context())
	if err != nil {
		return a.handleError(c, err)
	}
	return c.JSON(userEnvelope(user))
}

func (a *Adapter) getProfile(c fiber.Ctx) error {
	user, err := a.h.Profile.GetProfile(c.Context())
	if err != nil {
		return a.handleError(c, err)
	}
	return c.JSON(userEnvelope(user))
}

func (a *Adapter) updateProfile(c fiber.Ctx) error {
	var input core.UpdateProfileInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleError(c, errInvalidBody)
	}

	user, err := a.h.Profile.UpdateProfile(c.Context(), input)
	if err != nil {
		return a.handleError(c, err)
	}
	return c.JSON(userEnvelope(user))
}

func (a *Adapter) changePassword(c fiber.Ctx) error {
	var input core.ChangePasswordInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleError(c, errInvalidBody)
	}

	if err := a.h.Profile.ChangePassword(c.Context(), input); err != nil {
		return a.handleError(c, err)
	}
	return c.JSON(envelope{OK: true, Message: "Password updated"})
}

func (a *Adapter) listUsers(c fiber.Ctx) error {
	var is core.Issues
	input := core.ListUsersInput{
		Page:  queryInt(c, &is, "page", "Page", core.DefaultPage),
		Limit: queryInt(c, &is, "limit", "Limit", core.DefaultLimit),
		Query: c.Query("q"),
	}
	if err := is.Err("Invalid query"); err != nil {
		return a.handleError(c, err)
	}

	users, meta, err := a.h.Admin.ListUsers(c.Context(), input)
	if err != nil {
		return a.handleError(c, err)
	}

	out := listEnvelope{OK: true, Users: make([]core.PublicUser, 0, len(users)), Meta: meta}
	for _, u := range users {
		out.Users = append(out.Users, u.Public())
	}
	return c.JSON(out)
}

// queryInt reads an optional integer query parameter. A present value that
// is not an integer is reported instead of falling back to def.
func queryInt(c fiber.Ctx, is *core.Issues, key, label string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		is.Add(key, label+" must be an integer")
		return def
	}
	return n
}

func (a *Adapter) createUser(c fiber.Ctx) error {
	var input core.CreateUserInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleError(c, errInvalidBody)
	}

	user, err := a.h.Admin.CreateUser(c.Context(), input)
	if err != nil {
		return a.handleError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(userEnvelope(user))
}

func (a *Adapter) updateUser(c fiber.Ctx) error {
	var input core.UpdateUserInput
	if err := c.Bind().Body(&input); err != nil {
		return a.handleError(c, errInvalidBody)
	}

	user, err := a.h.Admin.UpdateUser(c.Context(), c.Params("id"), input)
	if err != nil {
		return a.handleError(c, err)
	}
	return c.JSON(userEnvelope(user))
}

func (a *Adapter) health(c fiber.Ctx) error {
	return c.JSON(envelope{OK: true})
}

// handleError renders err as a rejection. Internal failures are logged
// with their detail; the caller only sees a generic message.
func (a *Adapter) handleError(c fiber.Ctx, err error) error {
	r := core.RejectionFor(err)
	a.metrics.RecordRejection(r)

	if r.Kind == core.KindInternal {
		a.log.WithError(err).
			WithField("request_id", requestid.FromContext(c)).
			WithField("route", c.Route().Path).
			Error("request failed")
	}

	return c.Status(mapErrorToStatus(err)).JSON(envelope{
		Message:  r.Message,
		Category: r.Category,
		Issues:   r.Issues,
	})
}

// mapErrorToStatus maps an error to its HTTP status through its rejection kind
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch core.RejectionFor(err).Kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindConflict:
		return http.StatusConflict
	case core.KindAuthentication:
		return http.StatusUnauthorized
	case core.KindAuthorization:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
