//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/marketledger/infra"
	infracache "github.com/amirasaad/marketledger/infra/cache"
	infraeventbus "github.com/amirasaad/marketledger/infra/eventbus"
	infraprovider "github.com/amirasaad/marketledger/infra/provider"
	infrarepo "github.com/amirasaad/marketledger/infra/repository"
	"github.com/amirasaad/marketledger/internal/fixtures/dbtest"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/service/casework"
	"github.com/amirasaad/marketledger/pkg/service/credit"
	"github.com/amirasaad/marketledger/pkg/service/investment"
	lendingsvc "github.com/amirasaad/marketledger/pkg/service/lending"
	"github.com/amirasaad/marketledger/pkg/service/network"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// PostgresSuite runs the concurrency scenarios against real row locks.
type PostgresSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
	deps      config.Deps
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.db, err = infra.NewDBConnection(&config.DB{
		Url:          dsn,
		MaxOpenConns: 20,
		MaxIdleConns: 20,
		ConnLifetime: time.Hour,
	}, "test")
	s.Require().NoError(err)
	s.Require().NoError(infra.Migrate(s.db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.deps = config.Deps{
		Uow:          infrarepo.NewUoW(s.db),
		EventBus:     infraeventbus.NewWithMemory(logger),
		BalanceCache: infracache.NewMemoryCache(),
		Classifier:   infraprovider.NewStaticSentimentClassifier(string(cases.SentimentPositive)),
		Logger:       logger,
		Config:       dbtest.DefaultConfig(),
	}
}

func (s *PostgresSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(s.db.Exec(
		"TRUNCATE users, cases, comments, investments, credit_requests, loans, connections, transactions, fund CASCADE",
	).Error)
}

func (s *PostgresSuite) seedUser(name string, credits int64, role user.Role) *user.User {
	return dbtest.SeedUser(s.T(), s.db, name+"-"+uuid.NewString()[:8], credits, role)
}

// parallel runs fn n times concurrently and returns the errors.
func parallel(n int, fn func(i int) error) []error {
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fn(i)
		}(i)
	}
	wg.Wait()
	return errs
}

func count(errs []error, target error) (ok, matched int) {
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, target):
			matched++
		}
	}
	return
}

func (s *PostgresSuite) TestConcurrentApprovalsNeverExceedCapital() {
	ctx := context.Background()
	dbtest.SeedFund(s.T(), s.db, 1000, 0)
	admin := s.seedUser("admin", 0, user.RoleAdmin)
	svc := lendingsvc.New(s.deps)

	ids := make([]*lending.CreditRequest, 5)
	for i := range ids {
		borrower := s.seedUser("borrower", 0, user.RoleProvider)
		req, err := svc.RequestCredit(ctx, borrower.ID, 300)
		s.Require().NoError(err)
		ids[i] = req
	}

	errs := parallel(len(ids), func(i int) error {
		_, err := svc.Approve(ctx, admin.ID, ids[i].ID)
		return err
	})
	ok, short := count(errs, lending.ErrInsufficientFundCapital)
	s.Equal(3, ok)
	s.Equal(2, short)

	fund, err := svc.FundStatus(ctx)
	s.Require().NoError(err)
	s.Equal(int64(900), fund.TotalLoanedOut)
}

func (s *PostgresSuite) TestConcurrentTransfersNeverOverdraw() {
	ctx := context.Background()
	sender := s.seedUser("sender", 100, user.RoleClient)
	recipients := make([]*user.User, 10)
	for i := range recipients {
		recipients[i] = s.seedUser("recipient", 0, user.RoleProvider)
	}
	svc := credit.New(s.deps)

	errs := parallel(len(recipients), func(i int) error {
		_, err := svc.Transfer(ctx, sender.ID, recipients[i].ID, 30)
		return err
	})
	ok, short := count(errs, domain.ErrInsufficientCredits)
	s.Equal(3, ok)
	s.Equal(7, short)
	s.Equal(int64(10), dbtest.Balance(s.T(), s.db, sender.ID))
}

func (s *PostgresSuite) TestOpposingTransfersDoNotDeadlock() {
	ctx := context.Background()
	a := s.seedUser("a", 1000, user.RoleClient)
	b := s.seedUser("b", 1000, user.RoleClient)
	svc := credit.New(s.deps)

	errs := parallel(20, func(i int) error {
		if i%2 == 0 {
			_, err := svc.Transfer(ctx, a.ID, b.ID, 1)
			return err
		}
		_, err := svc.Transfer(ctx, b.ID, a.ID, 1)
		return err
	})
	for _, err := range errs {
		s.NoError(err)
	}
	s.Equal(int64(2000), dbtest.Balance(s.T(), s.db, a.ID)+dbtest.Balance(s.T(), s.db, b.ID))
}

func (s *PostgresSuite) TestConcurrentCompletionPaysOnce() {
	ctx := context.Background()
	client := s.seedUser("client", 0, user.RoleClient)
	provider := s.seedUser("provider", 0, user.RoleProvider)
	investor := s.seedUser("investor", 100, user.RoleInvestor)
	c := dbtest.SeedCase(s.T(), s.db, client.ID, provider.ID, cases.StatusInProgress)

	_, err := investment.New(s.deps).Invest(ctx, investor.ID, c.ID, 100)
	s.Require().NoError(err)

	svc := casework.New(s.deps)
	errs := parallel(5, func(int) error {
		_, err := svc.Complete(ctx, client.ID, c.ID)
		return err
	})
	ok, _ := count(errs, cases.ErrPayoutAlreadyProcessed)
	s.Equal(1, ok)
	s.Equal(int64(110), dbtest.Balance(s.T(), s.db, investor.ID))
	s.Equal(int64(10), dbtest.Balance(s.T(), s.db, client.ID))
}

func (s *PostgresSuite) TestConcurrentConnectionsAwardBonusOnce() {
	ctx := context.Background()
	owner := s.seedUser("owner", 0, user.RoleClient)
	contacts := make([]*user.User, 5)
	for i := range contacts {
		contacts[i] = s.seedUser("contact", 0, user.RoleProvider)
	}
	svc := network.New(s.deps)

	errs := parallel(len(contacts), func(i int) error {
		_, err := svc.Connect(ctx, owner.ID, contacts[i].ID)
		return err
	})
	for _, err := range errs {
		s.NoError(err)
	}
	s.Equal(int64(5), dbtest.Balance(s.T(), s.db, owner.ID))
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}
