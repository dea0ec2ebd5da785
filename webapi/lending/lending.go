package lending

import (
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/middleware"
	"github.com/amirasaad/marketledger/pkg/repository"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	lendingsvc "github.com/amirasaad/marketledger/pkg/service/lending"
	"github.com/amirasaad/marketledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the borrower side of micro-credit.
//   - POST /credit-requests  : ask for credit.
//   - GET  /credit-requests  : the caller's requests.
//   - GET  /loans            : the caller's loans.
//   - POST /loans/:id/repay  : repay a loan in full.
func Routes(app *fiber.App, lendingSvc *lendingsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/credit-requests", protected, RequestCredit(lendingSvc, authSvc))
	app.Get("/credit-requests", protected, ListMyRequests(lendingSvc, authSvc))
	app.Get("/loans", protected, ListLoans(lendingSvc, authSvc))
	app.Post("/loans/:id/repay", protected, Repay(lendingSvc, authSvc))
}

// AdminRoutes registers the fund administration endpoints on an admin-only router.
//   - GET  /admin/credit-requests             : all requests, ?status= filters.
//   - POST /admin/credit-requests/:id/approve : approve against the fund.
//   - POST /admin/credit-requests/:id/reject  : reject.
//   - GET  /admin/fund                        : capital and loaned-out totals.
//   - POST /admin/fund/capital                : add capital.
func AdminRoutes(admin fiber.Router, lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) {
	admin.Get("/credit-requests", ListRequests(lendingSvc))
	admin.Post("/credit-requests/:id/approve", Approve(lendingSvc, authSvc))
	admin.Post("/credit-requests/:id/reject", Reject(lendingSvc, authSvc))
	admin.Get("/fund", FundStatus(lendingSvc))
	admin.Post("/fund/capital", AddCapital(lendingSvc, authSvc))
}

func RequestCredit(lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[CreditRequestInput](c)
		if input == nil {
			return err
		}
		req, err := lendingSvc.RequestCredit(c.UserContext(), userID, input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to request credit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Credit requested", req)
	}
}

func ListMyRequests(lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		list, err := lendingSvc.ListRequests(c.UserContext(), repository.CreditRequestFilter{UserID: &userID})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list credit requests", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Credit requests fetched", list)
	}
}

func ListLoans(lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		list, err := lendingSvc.ListLoans(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list loans", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Loans fetched", list)
	}
}

func Repay(lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		loanID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		loan, err := lendingSvc.Repay(c.UserContext(), userID, loanID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to repay loan", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Loan repaid", loan)
	}
}

func ListRequests(lendingSvc *lendingsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := repository.CreditRequestFilter{Status: lending.RequestStatus(c.Query("status"))}
		list, err := lendingSvc.ListRequests(c.UserContext(), filter)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list credit requests", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Credit requests fetched", list)
	}
}

func Approve(lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		requestID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		decision, err := lendingSvc.Approve(c.UserContext(), adminID, requestID)
		if err != nil {
			log.Errorf("Failed to approve credit request %s: %v", requestID, err)
			return common.ProblemDetailsJSON(c, "Failed to approve credit request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Credit request approved", decision)
	}
}

func Reject(lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		requestID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		req, err := lendingSvc.Reject(c.UserContext(), adminID, requestID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to reject credit request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Credit request rejected", req)
	}
}

func FundStatus(lendingSvc *lendingsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fund, err := lendingSvc.FundStatus(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load fund", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Fund fetched", fund)
	}
}

func AddCapital(lendingSvc *lendingsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[CapitalInput](c)
		if input == nil {
			return err
		}
		fund, err := lendingSvc.AddCapital(c.UserContext(), adminID, input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to add capital", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Capital added", fund)
	}
}
