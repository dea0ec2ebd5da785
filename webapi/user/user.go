package user

import (
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	usersvc "github.com/amirasaad/marketledger/pkg/service/user"
	"github.com/amirasaad/marketledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers registration and profile endpoints.
//   - POST /user     : register (public). Admins cannot self-register.
//   - GET  /user/me  : the authenticated user's profile and balance.
func Routes(app *fiber.App, userSvc *usersvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Post("/user", CreateUser(userSvc))
	app.Get("/user/me", middleware.JwtProtected(cfg.Auth.Jwt), Me(userSvc, authSvc))
}

// CreateUser registers a new marketplace user.
func CreateUser(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[NewUser](c)
		if input == nil {
			return err
		}
		u, err := userSvc.Register(c.UserContext(), input.Username, input.Email, input.Password, user.Role(input.Role))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Created user", u)
	}
}

// Me returns the authenticated user.
func Me(userSvc *usersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		u, err := userSvc.GetUser(c.UserContext(), userID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "User not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", u)
	}
}
