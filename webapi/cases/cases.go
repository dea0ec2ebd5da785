package cases

import (
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	"github.com/amirasaad/marketledger/pkg/service/casework"
	"github.com/amirasaad/marketledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers case lifecycle endpoints. All routes require a token.
//
// Routes:
//   - POST  /cases               : open a case as client.
//   - GET   /cases               : cases the caller participates in.
//   - GET   /cases/:id           : one case.
//   - PATCH /cases/:id/status    : move the case forward; completed settles it.
//   - POST  /cases/:id/complete  : classify, reward and pay out.
//   - POST  /cases/:id/comments  : add to the thread.
//   - GET   /cases/:id/comments  : the thread, oldest first.
func Routes(app *fiber.App, caseSvc *casework.Service, authSvc *authsvc.Service, cfg *config.App) {
	group := app.Group("/cases", middleware.JwtProtected(cfg.Auth.Jwt))
	group.Post("/", CreateCase(caseSvc, authSvc))
	group.Get("/", ListCases(caseSvc, authSvc))
	group.Get("/:id", GetCase(caseSvc))
	group.Patch("/:id/status", UpdateStatus(caseSvc, authSvc))
	group.Post("/:id/complete", Complete(caseSvc, authSvc))
	group.Post("/:id/comments", AddComment(caseSvc, authSvc))
	group.Get("/:id/comments", ListComments(caseSvc, authSvc))
}

func CreateCase(caseSvc *casework.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[CreateCaseRequest](c)
		if input == nil {
			return err
		}
		created, err := caseSvc.Create(c.UserContext(), clientID, uuid.MustParse(input.ProviderID), input.Title)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create case", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Case created", created)
	}
}

func ListCases(caseSvc *casework.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		list, err := caseSvc.ListForUser(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list cases", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Cases fetched", list)
	}
}

func GetCase(caseSvc *casework.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caseID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		found, err := caseSvc.Get(c.UserContext(), caseID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Case not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Case fetched", found)
	}
}

// UpdateStatus returns the case, plus the settlement when the new status is
// completed.
func UpdateStatus(caseSvc *casework.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		caseID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[UpdateStatusRequest](c)
		if input == nil {
			return err
		}
		updated, completion, err := caseSvc.UpdateStatus(c.UserContext(), actorID, caseID, cases.Status(input.Status))
		if err != nil {
			log.Errorf("Failed to update case %s: %v", caseID, err)
			return common.ProblemDetailsJSON(c, "Failed to update case status", err)
		}
		if completion != nil {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Case completed", completion)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Case status updated", updated)
	}
}

func Complete(caseSvc *casework.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		caseID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		completion, err := caseSvc.Complete(c.UserContext(), actorID, caseID)
		if err != nil {
			log.Errorf("Failed to complete case %s: %v", caseID, err)
			return common.ProblemDetailsJSON(c, "Failed to complete case", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Case completed", completion)
	}
}

func AddComment(caseSvc *casework.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		caseID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		input, err := common.BindAndValidate[CommentRequest](c)
		if input == nil {
			return err
		}
		comment, err := caseSvc.AddComment(c.UserContext(), authorID, caseID, input.Body)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to add comment", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Comment added", comment)
	}
}

func ListComments(caseSvc *casework.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		caseID, ok, err := common.ParseUUIDParam(c, "id")
		if !ok {
			return err
		}
		list, err := caseSvc.ListComments(c.UserContext(), userID, caseID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list comments", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Comments fetched", list)
	}
}
