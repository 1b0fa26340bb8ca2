package fiber

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/metrics"
	"github.com/lborres/bantay/services"
	"github.com/sirupsen/logrus"
)

type Adapter struct {
	app     *fiber.App
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	h       core.Handlers
	cookies CookieTransport
	extra   []route
}

type route struct {
	ep      core.Endpoint
	handler fiber.Handler
}

var _ core.HTTPAdapter = (*Adapter)(nil)

type Option func(*Adapter)

func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Adapter) { a.log = log }
}

// WithMetrics records request, rejection and login metrics. A nil value
// records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithRoute mounts an extra endpoint beside the built-in catalog, behind the
// middleware its Access level selects. RegisterRoutes fails when its
// METHOD:PATH or OperationID is already taken.
func WithRoute(ep core.Endpoint, handler fiber.Handler) Option {
	return func(a *Adapter) { a.extra = append(a.extra, route{ep: ep, handler: handler}) }
}

func New(app *fiber.App, opts ...Option) *Adapter {
	a := &Adapter{app: app}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	a.log = a.log.WithField("component", "http")
	return a
}

var errHandlersMissing = errors.New("auth, guard, profile and admin handlers are required")

// RegisterRoutes mounts every catalog endpoint under h.BasePath. The access
// level of each endpoint decides which middleware runs before its handler.
func (a *Adapter) RegisterRoutes(h core.Handlers) error {
	if h.Auth == nil || h.Guard == nil || h.Profile == nil || h.Admin == nil {
		return errHandlersMissing
	}
	a.h = h
	a.cookies = NewCookieTransport(h.Session)

	bound := map[string]fiber.Handler{
		services.OpRegister:       a.register,
		services.OpLogin:          a.login,
		services.OpLogout:         a.logout,
		services.OpMe:             a.me,
		services.OpGetProfile:     a.getProfile,
		services.OpUpdateProfile:  a.updateProfile,
		services.OpChangePassword: a.changePassword,
		services.OpListUsers:      a.listUsers,
		services.OpCreateUser:     a.createUser,
		services.OpUpdateUser:     a.updateUser,
		services.OpHealth:         a.health,
	}

	registry := services.NewEndpointRegistry()
	extra := make([]core.Endpoint, 0, len(a.extra))
	for _, r := range a.extra {
		if _, taken := bound[r.ep.OperationID]; taken || r.handler == nil {
			return fmt.Errorf("cannot bind operation %q (%s %s)", r.ep.OperationID, r.ep.Method, r.ep.Path)
		}
		bound[r.ep.OperationID] = r.handler
		extra = append(extra, r.ep)
	}
	if err := registry.Register(extra...); err != nil {
		return err
	}

	api := a.app.Group(h.BasePath)
	if a.metrics != nil {
		api.Use(a.observe)
	}

	authenticate := a.Authenticate()
	requireAdmin := a.RequireRole(core.RoleAdmin)

	for _, ep := range registry.Endpoints() {
		handler, ok := bound[ep.OperationID]
		if !ok {
			return fmt.Errorf("no handler bound for operation %q (%s %s)", ep.OperationID, ep.Method, ep.Path)
		}
		methods := []string{ep.Method}

		switch ep.Access {
		case core.AccessPublic:
			api.Add(methods, ep.Path, handler)
		case core.AccessAuthenticated:
			api.Add(methods, ep.Path, authenticate, handler)
		case core.AccessAdmin:
			api.Add(methods, ep.Path, authenticate, requireAdmin, handler)
		default:
			return fmt.Errorf("endpoint %s %s has unknown access level %s", ep.Method, ep.Path, ep.Access)
		}
	}

	// anything under the base path that no route claimed
	api.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(envelope{Message: "Not found"})
	})

	return nil
}

// ErrorHandler renders errors that escape a handler, including recovered
// panics, in the same envelope as every other failure.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			msg := fe.Message
			if fe.Code == fiber.StatusNotFound {
				msg = "Not found"
			}
			return c.Status(fe.Code).JSON(envelope{Message: msg})
		}

		log.WithError(err).
			WithField("request_id", requestid.FromContext(c)).
			Error("unhandled error")
		return c.Status(http.StatusInternalServerError).JSON(envelope{Message: "Server error"})
	}
}
