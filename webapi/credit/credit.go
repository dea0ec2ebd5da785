package credit

import (
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	creditsvc "github.com/amirasaad/marketledger/pkg/service/credit"
	"github.com/amirasaad/marketledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Routes registers the credit endpoints.
//   - GET  /credits/balance  : the caller's balance.
//   - POST /credits/transfer : transfer credits to another user.
func Routes(app *fiber.App, creditSvc *creditsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	group := app.Group("/credits", middleware.JwtProtected(cfg.Auth.Jwt))
	group.Get("/balance", Balance(creditSvc, authSvc))
	group.Post("/transfer", Transfer(creditSvc, authSvc))
}

// Balance returns the caller's credit balance.
func Balance(creditSvc *creditsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		credits, err := creditSvc.Balance(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", fiber.Map{"credits": credits})
	}
}

// Transfer moves credits from the caller to the recipient.
func Transfer(creditSvc *creditsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		recipientID := uuid.MustParse(input.RecipientID)
		receipt, err := creditSvc.Transfer(c.UserContext(), userID, recipientID, input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to transfer credits", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, receipt.Message, receipt)
	}
}
