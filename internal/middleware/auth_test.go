package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"devfolio/internal/auth"
	"devfolio/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenService(testSecret)

	app := fiber.New()
	app.Get("/test", AuthRequired(tokens), func(c *fiber.Ctx) error {
		uid, _ := CurrentUserID(c)
		ctxUID, _ := UserIDFromContext(c.UserContext())
		return c.JSON(fiber.Map{"userID": uid, "ctxUserID": ctxUID})
	})

	valid, err := tokens.Issue("user-123")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	expired, err := tokens.WithClock(func() time.Time { return past }).Issue("user-123")
	require.NoError(t, err)

	forged, err := auth.NewTokenService("some-other-secret").Issue("user-123")
	require.NoError(t, err)

	tests := []struct {
		name            string
		cookie          string
		expectedStatus  int
		expectedMessage string
		expectedUserID  string
	}{
		{
			name:           "Happy Path",
			cookie:         valid,
			expectedStatus: http.StatusOK,
			expectedUserID: "user-123",
		},
		{
			name:            "Missing Cookie",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized: No token provided",
		},
		{
			name:            "Malformed Token",
			cookie:          "malformed.token.here",
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Invalid or expired token",
		},
		{
			name:            "Expired Token",
			cookie:          expired,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Invalid or expired token",
		},
		{
			name:            "Wrong Secret",
			cookie:          forged,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "Invalid or expired token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tt.cookie})
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body["userID"])
				assert.Equal(t, tt.expectedUserID, body["ctxUserID"])
				return
			}

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedMessage, body.Message)
		})
	}
}

func TestAuthRequired_BearerHeaderIgnored(t *testing.T) {
	tokens := auth.NewTokenService(testSecret)
	valid, err := tokens.Issue("user-123")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", AuthRequired(tokens), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
