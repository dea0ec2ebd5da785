package lending_test

import (
	"context"
	"sync"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/marketledger/infra/repository"
	"github.com/amirasaad/marketledger/internal/fixtures/dbtest"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	domainlending "github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/amirasaad/marketledger/pkg/service/lending"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env      *dbtest.Env
	svc      *lending.Service
	admin    *user.User
	borrower *user.User
}

func setup(t *testing.T, capital, loanedOut int64) *fixture {
	t.Helper()
	env := dbtest.NewEnv(t)
	dbtest.SeedFund(t, env.DB, capital, loanedOut)
	return &fixture{
		env:      env,
		svc:      lending.New(env.Deps),
		admin:    dbtest.SeedUser(t, env.DB, "admin", 0, user.RoleAdmin),
		borrower: dbtest.SeedUser(t, env.DB, "borrower", 0, user.RoleProvider),
	}
}

func (f *fixture) fund(t *testing.T) *domainlending.Fund {
	t.Helper()
	fund, err := f.svc.FundStatus(context.Background())
	require.NoError(t, err)
	return fund
}

func TestApprove_InsufficientFundCapital(t *testing.T) {
	f := setup(t, 1000, 600)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 500)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.admin.ID, req.ID)
	require.ErrorIs(t, err, domainlending.ErrInsufficientFundCapital)
	assert.NotErrorIs(t, err, domain.ErrInsufficientCredits)

	assert.Equal(t, int64(600), f.fund(t).TotalLoanedOut)
	assert.Zero(t, dbtest.Balance(t, f.env.DB, f.borrower.ID))
	assert.Zero(t, dbtest.CountRows(t, f.env.DB, &infrarepo.Loan{}, ""))
	pending, err := f.svc.ListRequests(ctx, repository.CreditRequestFilter{Status: domainlending.RequestPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestApprove_Success(t *testing.T) {
	f := setup(t, 1000, 600)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 300)
	require.NoError(t, err)

	before := time.Now().UTC()
	decision, err := f.svc.Approve(ctx, f.admin.ID, req.ID)
	require.NoError(t, err)

	assert.Equal(t, domainlending.RequestApproved, decision.Request.Status)
	require.NotNil(t, decision.Request.LoanID)
	assert.Equal(t, decision.Loan.ID, *decision.Request.LoanID)
	assert.Equal(t, f.admin.ID, *decision.Request.DecidedBy)
	assert.Equal(t, domainlending.LoanOutstanding, decision.Loan.Status)
	assert.WithinDuration(t, before.AddDate(0, 0, 30), decision.Loan.DueDate, time.Minute)

	assert.Equal(t, int64(900), f.fund(t).TotalLoanedOut)
	assert.Equal(t, int64(300), dbtest.Balance(t, f.env.DB, f.borrower.ID))
	assert.Equal(t, int64(1), dbtest.CountRows(t, f.env.DB, &infrarepo.LedgerEntry{},
		"idempotency_key = ?", "loan:"+decision.Loan.ID.String()+":disbursement"))

	published := f.env.Bus.Published()
	require.Len(t, published, 1)
	evt, ok := published[0].(*events.CreditRequestDecided)
	require.True(t, ok)
	assert.Equal(t, "approved", evt.Status)
}

func TestApprove_SingleResolution(t *testing.T) {
	f := setup(t, 1000, 0)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 100)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.admin.ID, req.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin.ID, req.ID)
	assert.ErrorIs(t, err, domainlending.ErrRequestAlreadyResolved)
	_, err = f.svc.Reject(ctx, f.admin.ID, req.ID)
	assert.ErrorIs(t, err, domainlending.ErrRequestAlreadyResolved)

	assert.Equal(t, int64(100), dbtest.Balance(t, f.env.DB, f.borrower.ID))
	assert.Equal(t, int64(100), f.fund(t).TotalLoanedOut)
}

func TestReject(t *testing.T) {
	f := setup(t, 1000, 0)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 100)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, f.admin.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domainlending.RequestRejected, rejected.Status)
	assert.Nil(t, rejected.LoanID)

	_, err = f.svc.Approve(ctx, f.admin.ID, req.ID)
	assert.ErrorIs(t, err, domainlending.ErrRequestAlreadyResolved)
	assert.Zero(t, dbtest.Balance(t, f.env.DB, f.borrower.ID))
	assert.Zero(t, f.fund(t).TotalLoanedOut)
}

func TestDecisions_RequireAdmin(t *testing.T) {
	f := setup(t, 1000, 0)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 100)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.borrower.ID, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.Reject(ctx, f.borrower.ID, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.AddCapital(ctx, f.borrower.ID, 100)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Approve(ctx, f.admin.ID, uuid.New())
	assert.ErrorIs(t, err, domainlending.ErrRequestNotFound)
}

func TestRequestCredit_Validation(t *testing.T) {
	f := setup(t, 1000, 0)
	_, err := f.svc.RequestCredit(context.Background(), f.borrower.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = f.svc.RequestCredit(context.Background(), uuid.New(), 10)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestApprove_ConcurrentNeverExceedsCapital(t *testing.T) {
	f := setup(t, 1000, 0)
	ctx := context.Background()

	var ids []uuid.UUID
	for range 5 {
		req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 300)
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _ = f.svc.Approve(ctx, f.admin.ID, id)
		}(id)
	}
	wg.Wait()

	fund := f.fund(t)
	assert.Equal(t, int64(900), fund.TotalLoanedOut)
	assert.LessOrEqual(t, fund.TotalLoanedOut, fund.TotalCapital)
	assert.Equal(t, int64(900), dbtest.Balance(t, f.env.DB, f.borrower.ID))
	assert.Equal(t, int64(3), dbtest.CountRows(t, f.env.DB, &infrarepo.Loan{}, ""))
}

func TestRepay(t *testing.T) {
	f := setup(t, 1000, 0)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 200)
	require.NoError(t, err)
	decision, err := f.svc.Approve(ctx, f.admin.ID, req.ID)
	require.NoError(t, err)

	_, err = f.svc.Repay(ctx, f.admin.ID, decision.Loan.ID)
	assert.ErrorIs(t, err, domainlending.ErrNotBorrower)

	loan, err := f.svc.Repay(ctx, f.borrower.ID, decision.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domainlending.LoanRepaid, loan.Status)
	assert.NotNil(t, loan.RepaidAt)
	assert.Zero(t, dbtest.Balance(t, f.env.DB, f.borrower.ID))
	assert.Zero(t, f.fund(t).TotalLoanedOut)

	_, err = f.svc.Repay(ctx, f.borrower.ID, decision.Loan.ID)
	assert.ErrorIs(t, err, domainlending.ErrLoanNotOutstanding)

	loans, err := f.svc.ListLoans(ctx, f.borrower.ID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, domainlending.LoanRepaid, loans[0].Status)
}

func TestRepay_InsufficientCredits(t *testing.T) {
	f := setup(t, 1000, 0)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 200)
	require.NoError(t, err)
	decision, err := f.svc.Approve(ctx, f.admin.ID, req.ID)
	require.NoError(t, err)

	// Spend part of the loan so the balance no longer covers it.
	require.NoError(t, f.env.DB.Model(&infrarepo.User{}).
		Where("id = ?", f.borrower.ID).Update("credits", 150).Error)

	_, err = f.svc.Repay(ctx, f.borrower.ID, decision.Loan.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
	assert.Equal(t, int64(200), f.fund(t).TotalLoanedOut)
}

func TestSweepOverdue(t *testing.T) {
	f := setup(t, 1000, 0)
	ctx := context.Background()
	req, err := f.svc.RequestCredit(ctx, f.borrower.ID, 100)
	require.NoError(t, err)
	decision, err := f.svc.Approve(ctx, f.admin.ID, req.ID)
	require.NoError(t, err)

	n, err := f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, f.env.DB.Model(&infrarepo.Loan{}).
		Where("id = ?", decision.Loan.ID).
		Update("due_date", time.Now().UTC().Add(-time.Hour)).Error)

	n, err = f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loans, err := f.svc.ListLoans(ctx, f.borrower.ID)
	require.NoError(t, err)
	assert.Equal(t, domainlending.LoanOverdue, loans[0].Status)

	// Overdue loans can still be repaid.
	_, err = f.svc.Repay(ctx, f.borrower.ID, decision.Loan.ID)
	assert.NoError(t, err)
}

func TestAddCapital(t *testing.T) {
	f := setup(t, 100, 0)
	ctx := context.Background()
	_, err := f.svc.AddCapital(ctx, f.admin.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	fund, err := f.svc.AddCapital(ctx, f.admin.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(500), fund.TotalCapital)
	assert.Equal(t, int64(500), f.fund(t).TotalCapital)
}
