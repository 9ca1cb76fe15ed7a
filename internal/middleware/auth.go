package middleware

import (
	"context"

	"devfolio/internal/auth"
	"devfolio/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	msgNoToken      = "Unauthorized: No token provided"
	msgInvalidToken = "Invalid or expired token"
)

// TokenVerifier verifies a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthRequired returns the auth gate: it reads the session cookie, verifies it, and stores
// the user id in c.Locals("userID") and the user context. Missing tokens get 401, tokens
// that fail verification get 403.
func AuthRequired(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.SessionToken(c)
		if token == "" {
			AuthRejections.WithLabelValues("missing").Inc()
			return models.RespondWithError(c, models.NewUnauthorizedError(msgNoToken))
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			AuthRejections.WithLabelValues("invalid").Inc()
			Logger.DebugContext(c.UserContext(), "session token rejected")
			return models.RespondWithError(c, models.NewForbiddenError(msgInvalidToken))
		}

		c.Locals("userID", claims.UserID)
		ctx := context.WithValue(c.UserContext(), UserIDKey, claims.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// CurrentUserID returns the user id stored by AuthRequired.
func CurrentUserID(c *fiber.Ctx) (string, bool) {
	uid, ok := c.Locals("userID").(string)
	return uid, ok && uid != ""
}
