package network

import (
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	networksvc "github.com/amirasaad/marketledger/pkg/service/network"
	"github.com/amirasaad/marketledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers network endpoints.
//   - POST /network/:contactId : connect with a user; the first connection pays a bonus.
//   - GET  /network            : the caller's connections.
func Routes(app *fiber.App, networkSvc *networksvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/network/:contactId", protected, Connect(networkSvc, authSvc))
	app.Get("/network", protected, List(networkSvc, authSvc))
}

func Connect(networkSvc *networksvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		contactID, ok, err := common.ParseUUIDParam(c, "contactId")
		if !ok {
			return err
		}
		res, err := networkSvc.Connect(c.UserContext(), ownerID, contactID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to connect", err)
		}
		msg := "Connected"
		if res.Bonus > 0 {
			msg = "Connected, first connection bonus awarded"
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, msg, res)
	}
}

func List(networkSvc *networksvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		list, err := networkSvc.List(c.UserContext(), ownerID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list connections", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Connections fetched", list)
	}
}
