package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJwt = &config.Jwt{Secret: "middleware-secret", Expiry: time.Hour}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newProtectedApp(extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{JwtProtected(testJwt)}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/", handlers...)
	return app
}

func get(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	return resp.StatusCode
}

func TestJwtProtected(t *testing.T) {
	app := newProtectedApp()
	exp := time.Now().Add(time.Hour).Unix()

	assert.Equal(t, fiber.StatusBadRequest, get(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, signed(t, "other-secret", jwt.MapClaims{"exp": exp})))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, signed(t, testJwt.Secret, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})))
	assert.Equal(t, fiber.StatusOK, get(t, app, signed(t, testJwt.Secret, jwt.MapClaims{"exp": exp})))
}

func TestRequireAdmin(t *testing.T) {
	app := newProtectedApp(RequireAdmin())
	exp := time.Now().Add(time.Hour).Unix()

	client := signed(t, testJwt.Secret, jwt.MapClaims{"exp": exp, "role": string(user.RoleClient)})
	admin := signed(t, testJwt.Secret, jwt.MapClaims{"exp": exp, "role": string(user.RoleAdmin)})

	assert.Equal(t, fiber.StatusForbidden, get(t, app, client))
	assert.Equal(t, fiber.StatusOK, get(t, app, admin))
}

func TestRequireRole_WithoutToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireRole(user.RoleInvestor), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, ""))
}

func TestJwtError_Malformed(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		return jwtError(c, errors.New("Missing or malformed JWT"))
	})
	assert.Equal(t, fiber.StatusBadRequest, get(t, app, ""))
}

func TestJwtError_Invalid(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		return jwtError(c, errors.New("any other error"))
	})
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, ""))
}
