package ledger

import (
	"bytes"
	"fmt"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/middleware"
	authsvc "github.com/amirasaad/marketledger/pkg/service/auth"
	ledgersvc "github.com/amirasaad/marketledger/pkg/service/ledger"
	"github.com/amirasaad/marketledger/webapi/common"
	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Routes registers GET /ledger, the caller's history newest first (?limit=).
func Routes(app *fiber.App, ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Get("/ledger", middleware.JwtProtected(cfg.Auth.Jwt), History(ledgerSvc, authSvc))
}

// AdminRoutes registers GET /admin/ledger/export on an admin-only router.
func AdminRoutes(admin fiber.Router, ledgerSvc *ledgersvc.Service) {
	admin.Get("/ledger/export", Export(ledgerSvc))
}

func History(ledgerSvc *ledgersvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := common.CurrentUserID(c, authSvc)
		if !ok {
			return err
		}
		entries, err := ledgerSvc.ListForUser(c.UserContext(), userID, c.QueryInt("limit", 0))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load ledger", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Ledger fetched", entries)
	}
}

// Export streams every ledger entry as an xlsx workbook.
func Export(ledgerSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := ledgerSvc.ExportXLSX(c.UserContext(), &buf); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to export ledger", err)
		}
		name := fmt.Sprintf("ledger-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Status(fiber.StatusOK).Send(buf.Bytes())
	}
}
