package server

import (
	"bytes"
	"image"
	_ "image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"devfolio/internal/auth"
	"devfolio/internal/cache"
	"devfolio/internal/config"
	"devfolio/internal/imagehost"
	"devfolio/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type e2eEnv struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
	cfg *config.Config
}

func newE2E(t *testing.T, mutate func(*config.Config)) *e2eEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	t.Cleanup(func() { cache.SetClient(nil) })

	host, err := imagehost.NewLocalHost(t.TempDir(), cfg.PublicBaseURL)
	require.NoError(t, err)

	srv, err := NewServerWithDeps(cfg, db, rdb, host)
	require.NoError(t, err)

	return &e2eEnv{srv: srv, app: srv.NewApp(), mr: mr, cfg: cfg}
}

func (e *e2eEnv) do(t *testing.T, req *http.Request, session *http.Cookie) *http.Response {
	t.Helper()
	if session != nil {
		req.AddCookie(session)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *e2eEnv) registerAndLogin(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	resp := e.do(t, jsonRequest(http.MethodPost, "/auth/register", CredentialsRequest{Email: email, Password: password}), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = e.do(t, jsonRequest(http.MethodPost, "/auth/login", CredentialsRequest{Email: email, Password: password}), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer func() { _ = resp.Body.Close() }()

	for _, ck := range resp.Cookies() {
		if ck.Name == auth.CookieName {
			return &http.Cookie{Name: ck.Name, Value: ck.Value}
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func TestE2E_RegisterLoginProfile(t *testing.T) {
	env := newE2E(t, nil)
	session := env.registerAndLogin(t, "a@x.com", "pw123")

	claims, err := env.srv.tokens.Verify(session.Value)
	require.NoError(t, err)
	stored, err := env.srv.userRepo.GetByEmail(t.Context(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, stored.ID, claims.UserID)
	assert.NotEqual(t, "pw123", stored.Password)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/user/profile", nil), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)
	assert.Equal(t, "a@x.com", profile["email"])
	assert.NotContains(t, profile, "password")
	assert.Equal(t, []any{}, profile["techStack"])

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/auth/profile", nil), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decodeBody(t, resp)["user"].(map[string]any)
	assert.Equal(t, stored.ID, user["id"])
	assert.NotContains(t, user, "password")
}

func TestE2E_DuplicateRegistration(t *testing.T) {
	env := newE2E(t, nil)
	env.registerAndLogin(t, "a@x.com", "pw123")

	resp := env.do(t, jsonRequest(http.MethodPost, "/auth/register", CredentialsRequest{Email: "A@X.com", Password: "other"}), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "User already exists", body["message"])
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestE2E_LoginFailuresIndistinguishable(t *testing.T) {
	env := newE2E(t, nil)
	env.registerAndLogin(t, "a@x.com", "pw123")

	wrong := env.do(t, jsonRequest(http.MethodPost, "/auth/login", CredentialsRequest{Email: "a@x.com", Password: "pw124"}), nil)
	unknown := env.do(t, jsonRequest(http.MethodPost, "/auth/login", CredentialsRequest{Email: "b@x.com", Password: "pw123"}), nil)

	assert.Equal(t, http.StatusBadRequest, wrong.StatusCode)
	assert.Equal(t, wrong.StatusCode, unknown.StatusCode)
	assert.Equal(t, decodeBody(t, wrong), decodeBody(t, unknown))
}

func TestE2E_SessionRejections(t *testing.T) {
	env := newE2E(t, nil)
	session := env.registerAndLogin(t, "a@x.com", "pw123")
	claims, err := env.srv.tokens.Verify(session.Value)
	require.NoError(t, err)

	expired, err := env.srv.tokens.
		WithClock(func() time.Time { return time.Now().Add(-time.Hour - time.Minute) }).
		Issue(claims.UserID)
	require.NoError(t, err)

	forged, err := auth.NewTokenService("some-other-secret-0123456789abcdef").Issue(claims.UserID)
	require.NoError(t, err)

	parts := strings.Split(session.Value, ".")
	tampered := parts[0] + "." + parts[1] + "A." + parts[2]

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/user/profile", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	for name, token := range map[string]string{"expired": expired, "forged": forged, "tampered": tampered} {
		t.Run(name, func(t *testing.T) {
			resp := env.do(t, httptest.NewRequest(http.MethodGet, "/user/profile", nil), &http.Cookie{Name: auth.CookieName, Value: token})
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, "Invalid or expired token", decodeBody(t, resp)["message"])
		})
	}

	// Bearer headers are not a session carrier.
	req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+session.Value)
	resp = env.do(t, req, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestE2E_UpdateThenRead(t *testing.T) {
	env := newE2E(t, nil)
	session := env.registerAndLogin(t, "a@x.com", "pw123")

	// warm the profile cache so the update has something to invalidate
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/user/profile", nil), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.do(t, jsonRequest(http.MethodPut, "/user/profile", map[string]any{
		"name":      "Ada",
		"bio":       "builds things",
		"techStack": []string{"go", "postgres"},
		"github":    "ada",
	}), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Profile updated", body["message"])
	assert.Equal(t, "Ada", body["user"].(map[string]any)["name"])

	// second partial update leaves earlier fields alone
	resp = env.do(t, jsonRequest(http.MethodPut, "/user/profile", map[string]any{
		"twitter": "ada_tw",
		"bio":     nil,
	}), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/user/profile", nil), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)
	assert.Equal(t, "Ada", profile["name"])
	assert.Equal(t, "builds things", profile["bio"])
	assert.Equal(t, []any{"go", "postgres"}, profile["techStack"])
	assert.Equal(t, "ada", profile["github"])
	assert.Equal(t, "ada_tw", profile["twitter"])

	// login still works: the update must not clobber the password hash
	resp = env.do(t, jsonRequest(http.MethodPost, "/auth/login", CredentialsRequest{Email: "a@x.com", Password: "pw123"}), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func multipartPicture(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("profilePic", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/user/upload-profile-picture", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestE2E_UploadProfilePicture(t *testing.T) {
	env := newE2E(t, nil)
	session := env.registerAndLogin(t, "a@x.com", "pw123")

	resp := env.do(t, multipartPicture(t, "me.png", testutil.PNGBytes(t, 2048, 1024)), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Profile picture updated", body["message"])

	url, _ := body["url"].(string)
	prefix := env.cfg.PublicBaseURL + imagehost.LocalRoute + "/profile_pictures/"
	require.True(t, strings.HasPrefix(url, prefix), "unexpected url %q", url)
	assert.True(t, strings.HasSuffix(url, ".png"))

	resp = env.do(t, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(url, env.cfg.PublicBaseURL), nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
	cfg, format, err := image.DecodeConfig(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 512, cfg.Height)

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/user/profile", nil), session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, url, decodeBody(t, resp)["profilePic"])
}

func TestE2E_UploadRejections(t *testing.T) {
	env := newE2E(t, func(c *config.Config) { c.ImageMaxUploadSizeMB = 1 })
	session := env.registerAndLogin(t, "a@x.com", "pw123")

	tests := []struct {
		name     string
		filename string
		content  []byte
		message  string
	}{
		{"wrong extension", "me.gif", testutil.PNGBytes(t, 8, 8), "Invalid image format"},
		{"not an image", "me.png", []byte("definitely not a png"), "Invalid image format"},
		{"too large", "me.png", bytes.Repeat([]byte{0xff}, 1024*1024+10), "File too large (max 1MB)"},
		{"huge dimensions", "me.png", testutil.PNGHeaderBytes(t, 12000, 12000), "Image dimensions too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, multipartPicture(t, tt.filename, tt.content), session)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.message, decodeBody(t, resp)["message"])
		})
	}
}

func TestE2E_Health(t *testing.T) {
	env := newE2E(t, nil)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", decodeBody(t, resp)["status"])

	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "healthy", checks["redis"])

	env.mr.SetError("ERR server unavailable")
	resp = env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", decodeBody(t, resp)["checks"].(map[string]any)["redis"])
}

func TestE2E_RateLimit(t *testing.T) {
	env := newE2E(t, func(c *config.Config) {
		c.RateLimitMax = 2
		c.RateLimitWindowMinutes = 15
	})

	for i := 0; i < 2; i++ {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil), nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests, please try again later.", decodeBody(t, resp)["message"])

	// preflight bypasses the limiter
	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp = env.do(t, req, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	_ = resp.Body.Close()
}

func TestNewServerWithDeps_RequiresDependencies(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	host, err := imagehost.NewLocalHost(t.TempDir(), "")
	require.NoError(t, err)

	_, err = NewServerWithDeps(nil, db, nil, host)
	assert.Error(t, err)
	_, err = NewServerWithDeps(testConfig(), nil, nil, host)
	assert.Error(t, err)
	_, err = NewServerWithDeps(testConfig(), db, nil, nil)
	assert.Error(t, err)

	srv, err := NewServerWithDeps(testConfig(), db, nil, host)
	require.NoError(t, err)
	app := srv.NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "disabled", decodeBody(t, resp)["checks"].(map[string]any)["redis"])
}
