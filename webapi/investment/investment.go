package investment

import (
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	investmentsvc "github.com/amirasaad/marketledger/pkg/service/investment"
	"github.com/amirasaad/marketledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers investment endpoints.
//   - POST /cases/:id/investments : invest in a case.
//   - GET  /cases/:id/investments : investments placed on a case.
//   - GET  /investments           : the caller's investments.
func Routes(app *fiber.App, investmentSvc *investmentsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/cases/:id/investments", protected, Invest(investmentSvc, authSvc))
	app.Get("/cases/:id/investments", protected, ListByCase(investmentSvc))
	app.Get("/investments", protected, ListMine(investmentSvc, authSvc))
}

func Invest(investmentSvc *investmentsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		investorID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		caseID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[InvestRequest](c)
		if input == nil {
			return err
		}
		inv, err := investmentSvc.Invest(c.UserContext(), investorID, caseID, input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to invest", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Investment placed", inv)
	}
}

func ListByCase(investmentSvc *investmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caseID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		list, err := investmentSvc.ListByCase(c.UserContext(), caseID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list investments", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Investments fetched", list)
	}
}

func ListMine(investmentSvc *investmentsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		investorID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		list, err := investmentSvc.ListByInvestor(c.UserContext(), investorID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list investments", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Investments fetched", list)
	}
}
