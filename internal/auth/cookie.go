package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite string
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == "" {
		o.SameSite = fiber.CookieSameSiteLaxMode
	}
	return o
}

// SetSessionCookie issues the HTTP-only session cookie.
func SetSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time, opts CookieOptions) {
	opts = opts.normalize()
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		Secure:   opts.Secure,
		HTTPOnly: true,
		SameSite: opts.SameSite,
	})
}

// SessionToken returns the session token cookie value, or "" when absent.
func SessionToken(c *fiber.Ctx) string {
	return c.Cookies(CookieName)
}
