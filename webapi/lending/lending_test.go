package lending_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amirasaad/marketledger/internal/fixtures/dbtest"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	lendingsvc "github.com/amirasaad/marketledger/pkg/service/lending"
	"github.com/amirasaad/marketledger/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestCredit(t *testing.T, h *testutils.Harness, u testutils.TestUser, amount int64) *lending.CreditRequest {
	t.Helper()
	status, env := h.Do(http.MethodPost, "/credit-requests", fmt.Sprintf(`{"amount":%d}`, amount), u.Token)
	require.Equal(t, fiber.StatusCreated, status, env.Detail)
	req := testutils.Decode[lending.CreditRequest](t, env)
	return &req
}

func TestApproveAndReject(t *testing.T) {
	h := testutils.New(t)
	dbtest.SeedFund(t, h.Env.DB, 1000, 600)
	borrower := h.Register("borrower", "provider")
	admin := h.RegisterAdmin("admin")

	tooBig := requestCredit(t, h, borrower, 500)
	fits := requestCredit(t, h, borrower, 300)
	denied := requestCredit(t, h, borrower, 50)

	status, env := h.Do(http.MethodPost, fmt.Sprintf("/admin/credit-requests/%s/approve", tooBig.ID), "", admin.Token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status, env.Detail)

	status, env = h.Do(http.MethodPost, fmt.Sprintf("/admin/credit-requests/%s/approve", fits.ID), "", admin.Token)
	require.Equal(t, fiber.StatusOK, status, env.Detail)
	decision := testutils.Decode[lendingsvc.Decision](t, env)
	require.NotNil(t, decision.Loan)
	assert.Equal(t, lending.RequestApproved, decision.Request.Status)
	assert.Equal(t, int64(300), decision.Loan.Amount)

	status, _ = h.Do(http.MethodPost, fmt.Sprintf("/admin/credit-requests/%s/approve", fits.ID), "", admin.Token)
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = h.Do(http.MethodPost, fmt.Sprintf("/admin/credit-requests/%s/reject", denied.ID), "", admin.Token)
	require.Equal(t, fiber.StatusOK, status, env.Detail)
	assert.Equal(t, lending.RequestRejected, testutils.Decode[lending.CreditRequest](t, env).Status)

	status, env = h.Do(http.MethodGet, "/admin/fund", "", admin.Token)
	require.Equal(t, fiber.StatusOK, status)
	fund := testutils.Decode[lending.Fund](t, env)
	assert.Equal(t, int64(900), fund.TotalLoanedOut)

	status, env = h.Do(http.MethodGet, "/admin/credit-requests?status=pending", "", admin.Token)
	require.Equal(t, fiber.StatusOK, status)
	pending := testutils.Decode[[]lending.CreditRequest](t, env)
	require.Len(t, pending, 1)
	assert.Equal(t, tooBig.ID, pending[0].ID)

	status, env = h.Do(http.MethodGet, "/credits/balance", "", borrower.Token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(300), testutils.Decode[map[string]int64](t, env)["credits"])
}

func TestBorrowerCannotApprove(t *testing.T) {
	h := testutils.New(t)
	dbtest.SeedFund(t, h.Env.DB, 1000, 0)
	borrower := h.Register("borrower", "provider")
	req := requestCredit(t, h, borrower, 100)

	status, _ := h.Do(http.MethodPost, fmt.Sprintf("/admin/credit-requests/%s/approve", req.ID), "", borrower.Token)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestRepay(t *testing.T) {
	h := testutils.New(t)
	dbtest.SeedFund(t, h.Env.DB, 1000, 0)
	borrower := h.Register("borrower", "provider")
	other := h.Register("other", "client")
	admin := h.RegisterAdmin("admin")
	req := requestCredit(t, h, borrower, 200)

	status, env := h.Do(http.MethodPost, fmt.Sprintf("/admin/credit-requests/%s/approve", req.ID), "", admin.Token)
	require.Equal(t, fiber.StatusOK, status, env.Detail)
	loan := testutils.Decode[lendingsvc.Decision](t, env).Loan

	status, env = h.Do(http.MethodGet, "/loans", "", borrower.Token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, testutils.Decode[[]lending.Loan](t, env), 1)

	status, _ = h.Do(http.MethodPost, fmt.Sprintf("/loans/%s/repay", loan.ID), "", other.Token)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = h.Do(http.MethodPost, fmt.Sprintf("/loans/%s/repay", loan.ID), "", borrower.Token)
	require.Equal(t, fiber.StatusOK, status, env.Detail)
	assert.Equal(t, lending.LoanRepaid, testutils.Decode[lending.Loan](t, env).Status)

	status, _ = h.Do(http.MethodPost, fmt.Sprintf("/loans/%s/repay", loan.ID), "", borrower.Token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestAddCapital(t *testing.T) {
	h := testutils.New(t)
	dbtest.SeedFund(t, h.Env.DB, 100, 0)
	admin := h.RegisterAdmin("admin")

	status, env := h.Do(http.MethodPost, "/admin/fund/capital", `{"amount":400}`, admin.Token)
	require.Equal(t, fiber.StatusOK, status, env.Detail)
	assert.Equal(t, int64(500), testutils.Decode[lending.Fund](t, env).TotalCapital)

	status, _ = h.Do(http.MethodPost, "/admin/fund/capital", `{"amount":0}`, admin.Token)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
