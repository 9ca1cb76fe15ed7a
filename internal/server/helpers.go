package server

import (
	"context"
	"errors"
	"log/slog"

	"devfolio/internal/middleware"
	"devfolio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// requestContext derives the store-call deadline from the request's user context.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// respondError logs server-side failures and writes the public error body.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Status() >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, err)
}

// currentUserID returns the identity set by the auth gate.
func currentUserID(c *fiber.Ctx) (string, error) {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return "", models.NewUnauthorizedError("Unauthorized: No token provided")
	}
	return uid, nil
}
