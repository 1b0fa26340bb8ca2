package fiber

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/bantay/core"
)

// CookieTransport carries the session token in an HTTP-only cookie. Attach
// and Detach write identical attributes so a browser treats the clearing
// cookie as the same cookie.
type CookieTransport struct {
	cfg core.SessionConfig
}

func NewCookieTransport(cfg core.SessionConfig) CookieTransport {
	if cfg.CookieName == "" {
		cfg.CookieName = core.DefaultCookieName
	}
	return CookieTransport{cfg: cfg}
}

func (t CookieTransport) Name() string { return t.cfg.CookieName }

func (t CookieTransport) cookie(value string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     t.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   t.cfg.Domain,
		HTTPOnly: true,
		Secure:   t.cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// Attach sets the token with a max-age equal to the token lifetime.
func (t CookieTransport) Attach(c fiber.Ctx, token string) {
	ck := t.cookie(token)
	ck.MaxAge = int(t.cfg.TTL / time.Second)
	c.Cookie(ck)
}

// Detach expires the cookie. It does not need a valid session.
func (t CookieTransport) Detach(c fiber.Ctx) {
	ck := t.cookie("")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	c.Cookie(ck)
}

// Extract returns the raw token, or "" when the cookie is absent.
// Authorization headers are ignored.
func (t CookieTransport) Extract(c fiber.Ctx) string {
	return c.Cookies(t.cfg.CookieName)
}
