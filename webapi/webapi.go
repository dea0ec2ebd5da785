// Package webapi provides HTTP handlers and API endpoints for the marketplace ledger.
// It is organized into sub-packages for different domains:
//   - auth, user: login and registration
//   - credit: balances and transfers
//   - cases, investment: case lifecycle, completion payouts and investments
//   - lending: micro-credit requests, loans and fund administration
//   - network: connections and the first-connection bonus
//   - ledger: history and the admin spreadsheet export
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/marketledger/pkg/app"
	"github.com/amirasaad/marketledger/pkg/metrics"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authweb "github.com/amirasaad/marketledger/webapi/auth"
	casesweb "github.com/amirasaad/marketledger/webapi/cases"
	"github.com/amirasaad/marketledger/webapi/common"
	creditweb "github.com/amirasaad/marketledger/webapi/credit"
	investmentweb "github.com/amirasaad/marketledger/webapi/investment"
	ledgerweb "github.com/amirasaad/marketledger/webapi/ledger"
	lendingweb "github.com/amirasaad/marketledger/webapi/lending"
	networkweb "github.com/amirasaad/marketledger/webapi/network"
	userweb "github.com/amirasaad/marketledger/webapi/user"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return common.ProblemDetailsJSON(c, fe.Message, err, fe.Message, fe.Code)
			}
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Market ledger API is running!")
	})
	fiberApp.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	userweb.Routes(fiberApp, a.UserService, a.AuthService, cfg)
	authweb.Routes(fiberApp, a.AuthService)
	creditweb.Routes(fiberApp, a.CreditService, a.AuthService, cfg)
	casesweb.Routes(fiberApp, a.CaseService, a.AuthService, cfg)
	investmentweb.Routes(fiberApp, a.InvestmentService, a.AuthService, cfg)
	lendingweb.Routes(fiberApp, a.LendingService, a.AuthService, cfg)
	networkweb.Routes(fiberApp, a.NetworkService, a.AuthService, cfg)
	ledgerweb.Routes(fiberApp, a.LedgerService, a.AuthService, cfg)

	admin := fiberApp.Group("/admin", middleware.JwtProtected(cfg.Auth.Jwt), middleware.RequireAdmin())
	lendingweb.AdminRoutes(admin, a.LendingService, a.AuthService)
	ledgerweb.AdminRoutes(admin, a.LedgerService)

	return fiberApp
}
