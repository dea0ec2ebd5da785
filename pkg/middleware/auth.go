package middleware

import (
	"errors"
	"strings"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is where the verified *jwt.Token is stored in fiber locals.
const ContextKey = "user"

// JwtProtected verifies the bearer token and stores it under ContextKey.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	secret := ""
	if cfg != nil {
		secret = cfg.Secret
	}
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		ContextKey:   ContextKey,
		ErrorHandler: jwtError,
	})
}

// RequireRole rejects requests whose token does not carry one of roles.
// It must run after JwtProtected.
func RequireRole(roles ...user.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals(ContextKey).(*jwt.Token)
		if !ok {
			return problem(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return problem(c, fiber.StatusUnauthorized, "Unauthorized", "invalid token claims")
		}
		role, _ := claims["role"].(string)
		for _, r := range roles {
			if user.Role(role) == r {
				return c.Next()
			}
		}
		return problem(c, fiber.StatusForbidden, "Forbidden", "insufficient role")
	}
}

// RequireAdmin is RequireRole(user.RoleAdmin).
func RequireAdmin() fiber.Handler {
	return RequireRole(user.RoleAdmin)
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) ||
		strings.Contains(strings.ToLower(err.Error()), "missing or malformed jwt") {
		return problem(c, fiber.StatusBadRequest, "Missing or malformed JWT", err.Error())
	}
	return problem(c, fiber.StatusUnauthorized, "Invalid or expired JWT", err.Error())
}

func problem(c *fiber.Ctx, status int, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(fiber.Map{
		"success":  false,
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   detail,
		"instance": c.OriginalURL(),
	})
}
