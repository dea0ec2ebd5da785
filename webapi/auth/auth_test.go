package auth_test

import (
	"net/http"
	"testing"

	"github.com/amirasaad/marketledger/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestLogin(t *testing.T) {
	h := testutils.New(t)
	h.Register("frank", "client")

	assert.NotEmpty(t, h.Login("frank"))

	status, env := h.Do(http.MethodPost, "/auth/login", `{"identity":"frank@example.com","password":"password123"}`, "")
	assert.Equal(t, fiber.StatusOK, status, env.Detail)

	status, env = h.Do(http.MethodPost, "/auth/login", `{"identity":"frank","password":"wrong-password"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, _ = h.Do(http.MethodPost, "/auth/login", `{"identity":"ghost","password":"password123"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = h.Do(http.MethodPost, "/auth/login", `{"identity":"frank"}`, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
