package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"kinship/internal/config"
	"kinship/internal/models"
	"kinship/internal/session"
	"kinship/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
}

type envelope struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Data    json.RawMessage     `json:"data"`
	Errors  []models.FieldError `json:"errors"`
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                  "test",
		Port:                 "0",
		JWTSecret:            "access-secret-for-handler-tests",
		JWTRefreshSecret:     "refresh-secret-for-handler-tests",
		AdminKey:             "admin-key",
		UploadDir:            t.TempDir(),
		RoomProvisioningMode: config.RoomModeSync,
	}
}

func newTestServer(t *testing.T, opts ...session.Option) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(testConfig(t), db, rdb, opts...)
	require.NoError(t, err)
	return &testServer{srv: srv, app: srv.App(), mr: mr}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

// signup registers username and logs in, returning the user ID and the session cookies.
func (ts *testServer) signup(t *testing.T, username string) (string, []*http.Cookie) {
	t.Helper()
	resp, env := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
		"username": username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	resp, env = ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	var user userSummary
	require.NoError(t, json.Unmarshal(env.Data, &user))
	return user.ID, resp.Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
