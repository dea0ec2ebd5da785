// Package testutils wires the full HTTP stack over an in-memory database
// for handler tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	infrarepo "github.com/amirasaad/marketledger/infra/repository"
	"github.com/amirasaad/marketledger/internal/fixtures/dbtest"
	"github.com/amirasaad/marketledger/pkg/app"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded form of both response shapes.
type Envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Title   string          `json:"title"`
	Detail  string          `json:"detail"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

// Harness is a running fiber app over a fresh dbtest.Env.
type Harness struct {
	T     *testing.T
	Env   *dbtest.Env
	App   *app.App
	Fiber *fiber.App
}

// TestUser is a registered user with a valid token.
type TestUser struct {
	ID    uuid.UUID
	Token string
}

// New builds the application exactly as the server does, on dbtest.NewEnv.
func New(t *testing.T) *Harness {
	t.Helper()
	env := dbtest.NewEnv(t)
	a := app.New(&env.Deps, env.Deps.Config)
	return &Harness{T: t, Env: env, App: a, Fiber: webapi.SetupApp(a)}
}

// MakeRequest is a helper for making HTTP requests in tests
func MakeRequest(app *fiber.App, method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// Do sends a request and decodes the envelope.
func (h *Harness) Do(method, path, body, token string) (int, Envelope) {
	h.T.Helper()
	resp := MakeRequest(h.Fiber, method, path, body, token)
	defer resp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.T, err)
	var env Envelope
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(h.T, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// Decode unmarshals the envelope data into out.
func Decode[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

// Register creates a user through POST /user and logs in through /auth/login.
func (h *Harness) Register(username string, role user.Role) TestUser {
	h.T.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":"password123","role":%q}`, username, username, role)
	status, env := h.Do(http.MethodPost, "/user", body, "")
	require.Equal(h.T, fiber.StatusCreated, status, env.Detail)
	created := Decode[user.User](h.T, env)
	return TestUser{ID: created.ID, Token: h.Login(username)}
}

// RegisterAdmin creates an admin through the service, since admins cannot
// self-register over HTTP.
func (h *Harness) RegisterAdmin(username string) TestUser {
	h.T.Helper()
	u, err := h.App.UserService.Register(context.Background(), username, username+"@example.com", "password123", user.RoleAdmin)
	require.NoError(h.T, err)
	return TestUser{ID: u.ID, Token: h.Login(username)}
}

// Login returns a token for username.
func (h *Harness) Login(username string) string {
	h.T.Helper()
	body := fmt.Sprintf(`{"identity":%q,"password":"password123"}`, username)
	status, env := h.Do(http.MethodPost, "/auth/login", body, "")
	require.Equal(h.T, fiber.StatusOK, status, env.Detail)
	data := Decode[map[string]string](h.T, env)
	require.NotEmpty(h.T, data["token"])
	return data["token"]
}

// Fund sets a user's stored balance directly.
func (h *Harness) Fund(u TestUser, credits int64) {
	h.T.Helper()
	require.NoError(h.T, h.Env.DB.Model(&infrarepo.User{}).
		Where("id = ?", u.ID).
		Update("credits", credits).Error)
	_ = h.Env.Cache.Delete(context.Background(), u.ID)
}
