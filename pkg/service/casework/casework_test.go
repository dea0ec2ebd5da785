package casework_test

import (
	"context"
	"errors"
	"testing"

	infrarepo "github.com/amirasaad/marketledger/infra/repository"
	"github.com/amirasaad/marketledger/internal/fixtures/dbtest"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/service/casework"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CaseworkTestSuite struct {
	suite.Suite
	env       *dbtest.Env
	svc       *casework.Service
	client    *user.User
	provider  *user.User
	investor1 *user.User
	investor2 *user.User
	kase      *cases.Case
}

func (s *CaseworkTestSuite) SetupTest() {
	t := s.T()
	s.env = dbtest.NewEnv(t)
	s.svc = casework.New(s.env.Deps)
	s.client = dbtest.SeedUser(t, s.env.DB, "client", 0, user.RoleClient)
	s.provider = dbtest.SeedUser(t, s.env.DB, "provider", 0, user.RoleProvider)
	s.investor1 = dbtest.SeedUser(t, s.env.DB, "investor1", 0, user.RoleInvestor)
	s.investor2 = dbtest.SeedUser(t, s.env.DB, "investor2", 0, user.RoleInvestor)
	s.kase = dbtest.SeedCase(t, s.env.DB, s.client.ID, s.provider.ID, cases.StatusInProgress)
}

func (s *CaseworkTestSuite) invest(investor *user.User, amount int64) *investment.Investment {
	inv, err := investment.New(investor.ID, s.kase.ID, amount)
	s.Require().NoError(err)
	s.Require().NoError(infrarepo.NewInvestmentRepository(s.env.DB).Create(context.Background(), inv))
	return inv
}

func (s *CaseworkTestSuite) balance(u *user.User) int64 {
	return dbtest.Balance(s.T(), s.env.DB, u.ID)
}

func (s *CaseworkTestSuite) TestComplete_PositiveRewardsAndPayouts() {
	s.env.Classifier.Sentiment = cases.SentimentPositive
	s.invest(s.investor1, 100)
	s.invest(s.investor2, 50)

	result, err := s.svc.Complete(context.Background(), s.client.ID, s.kase.ID)
	s.Require().NoError(err)
	s.Equal(cases.SentimentPositive, result.Sentiment)
	s.Len(result.Rewards, 2)
	s.Len(result.Payouts, 2)

	s.Equal(int64(10), s.balance(s.client))
	s.Equal(int64(10), s.balance(s.provider))
	s.Equal(int64(110), s.balance(s.investor1))
	s.Equal(int64(55), s.balance(s.investor2))

	stored, err := s.svc.Get(context.Background(), s.kase.ID)
	s.Require().NoError(err)
	s.Equal(cases.StatusCompleted, stored.Status)
	s.Equal(cases.SentimentPositive, stored.Sentiment)
	s.NotNil(stored.PayoutProcessedAt)

	s.Equal(int64(4), dbtest.CountRows(s.T(), s.env.DB, &infrarepo.LedgerEntry{}, "idempotency_key IS NOT NULL"))

	published := s.env.Bus.Published()
	s.Require().Len(published, 1)
	evt, ok := published[0].(*events.CaseCompleted)
	s.Require().True(ok)
	s.Equal(int64(20), evt.RewardTotal)
	s.Equal(int64(165), evt.PayoutTotal)
	s.Len(evt.Payees, 4)
}

func (s *CaseworkTestSuite) TestComplete_NeutralAndNegative() {
	s.env.Classifier.Sentiment = cases.SentimentNeutral
	_, err := s.svc.Complete(context.Background(), s.provider.ID, s.kase.ID)
	s.Require().NoError(err)
	s.Equal(int64(5), s.balance(s.client))
	s.Equal(int64(5), s.balance(s.provider))

	other := dbtest.SeedCase(s.T(), s.env.DB, s.client.ID, s.provider.ID, cases.StatusNew)
	s.env.Classifier.Sentiment = cases.SentimentNegative
	result, err := s.svc.Complete(context.Background(), s.client.ID, other.ID)
	s.Require().NoError(err)
	s.Empty(result.Rewards)
	s.Equal(int64(5), s.balance(s.client))
}

func (s *CaseworkTestSuite) TestComplete_ExactlyOnce() {
	s.env.Classifier.Sentiment = cases.SentimentPositive
	s.invest(s.investor1, 100)

	_, err := s.svc.Complete(context.Background(), s.client.ID, s.kase.ID)
	s.Require().NoError(err)
	_, err = s.svc.Complete(context.Background(), s.client.ID, s.kase.ID)
	s.ErrorIs(err, cases.ErrPayoutAlreadyProcessed)

	_, _, err = s.svc.UpdateStatus(context.Background(), s.client.ID, s.kase.ID, cases.StatusCompleted)
	s.ErrorIs(err, cases.ErrPayoutAlreadyProcessed)

	s.Equal(int64(110), s.balance(s.investor1))
	s.Equal(int64(10), s.balance(s.client))
}

func (s *CaseworkTestSuite) TestComplete_ClassifierFailureWritesNothing() {
	s.env.Classifier.Err = errors.New("model unavailable")
	s.invest(s.investor1, 100)

	_, err := s.svc.Complete(context.Background(), s.client.ID, s.kase.ID)
	s.ErrorIs(err, domain.ErrClassificationFailed)

	stored, err := s.svc.Get(context.Background(), s.kase.ID)
	s.Require().NoError(err)
	s.Equal(cases.StatusInProgress, stored.Status)
	s.Nil(stored.PayoutProcessedAt)
	s.Zero(s.balance(s.investor1))
	s.Empty(s.env.Bus.Published())
}

func (s *CaseworkTestSuite) TestComplete_MissingProviderAbortsEverything() {
	s.env.Classifier.Sentiment = cases.SentimentPositive
	orphan := dbtest.SeedCase(s.T(), s.env.DB, s.client.ID, uuid.New(), cases.StatusInProgress)
	inv, err := investment.New(s.investor1.ID, orphan.ID, 100)
	s.Require().NoError(err)
	s.Require().NoError(infrarepo.NewInvestmentRepository(s.env.DB).Create(context.Background(), inv))

	_, err = s.svc.Complete(context.Background(), s.client.ID, orphan.ID)
	s.ErrorIs(err, user.ErrUserNotFound)

	s.Zero(s.balance(s.client))
	s.Zero(s.balance(s.investor1))
	stored, err := s.svc.Get(context.Background(), orphan.ID)
	s.Require().NoError(err)
	s.Equal(cases.StatusInProgress, stored.Status)
	s.Zero(dbtest.CountRows(s.T(), s.env.DB, &infrarepo.LedgerEntry{}, ""))
}

func (s *CaseworkTestSuite) TestComplete_Rejections() {
	stranger := dbtest.SeedUser(s.T(), s.env.DB, "stranger", 0, user.RoleInvestor)
	_, err := s.svc.Complete(context.Background(), stranger.ID, s.kase.ID)
	s.ErrorIs(err, cases.ErrNotParticipant)

	_, err = s.svc.Complete(context.Background(), s.client.ID, uuid.New())
	s.ErrorIs(err, cases.ErrCaseNotFound)

	cancelled := dbtest.SeedCase(s.T(), s.env.DB, s.client.ID, s.provider.ID, cases.StatusCancelled)
	_, err = s.svc.Complete(context.Background(), s.client.ID, cancelled.ID)
	s.ErrorIs(err, cases.ErrInvalidStatusTransition)
	s.Zero(s.env.Classifier.Calls())
}

func (s *CaseworkTestSuite) TestComplete_AdminMayComplete() {
	admin := dbtest.SeedUser(s.T(), s.env.DB, "admin", 0, user.RoleAdmin)
	_, err := s.svc.Complete(context.Background(), admin.ID, s.kase.ID)
	s.NoError(err)
}

func (s *CaseworkTestSuite) TestUpdateStatus() {
	ctx := context.Background()
	fresh := dbtest.SeedCase(s.T(), s.env.DB, s.client.ID, s.provider.ID, cases.StatusNew)

	c, completion, err := s.svc.UpdateStatus(ctx, s.provider.ID, fresh.ID, cases.StatusInProgress)
	s.Require().NoError(err)
	s.Nil(completion)
	s.Equal(cases.StatusInProgress, c.Status)

	_, _, err = s.svc.UpdateStatus(ctx, s.provider.ID, fresh.ID, cases.StatusNew)
	s.ErrorIs(err, cases.ErrInvalidStatusTransition)

	_, _, err = s.svc.UpdateStatus(ctx, s.provider.ID, fresh.ID, cases.Status("archived"))
	s.ErrorIs(err, cases.ErrInvalidStatusTransition)

	c, _, err = s.svc.UpdateStatus(ctx, s.client.ID, fresh.ID, cases.StatusCancelled)
	s.Require().NoError(err)
	s.Equal(cases.StatusCancelled, c.Status)

	_, completion, err = s.svc.UpdateStatus(ctx, s.client.ID, s.kase.ID, cases.StatusCompleted)
	s.Require().NoError(err)
	s.NotNil(completion)
}

func (s *CaseworkTestSuite) TestCreateAndList() {
	ctx := context.Background()
	c, err := s.svc.Create(ctx, s.client.ID, s.provider.ID, "Kitchen remodel")
	s.Require().NoError(err)
	s.Equal(cases.StatusNew, c.Status)

	_, err = s.svc.Create(ctx, s.client.ID, uuid.New(), "Ghost provider")
	s.ErrorIs(err, user.ErrUserNotFound)

	_, err = s.svc.Create(ctx, s.client.ID, s.provider.ID, "  ")
	s.ErrorIs(err, domain.ErrValidation)

	list, err := s.svc.ListForUser(ctx, s.provider.ID)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *CaseworkTestSuite) TestComments() {
	ctx := context.Background()
	_, err := s.svc.AddComment(ctx, s.client.ID, s.kase.ID, "Great work so far")
	s.Require().NoError(err)
	_, err = s.svc.AddComment(ctx, s.provider.ID, s.kase.ID, "Thanks!")
	s.Require().NoError(err)

	_, err = s.svc.AddComment(ctx, s.investor1.ID, s.kase.ID, "hello")
	s.ErrorIs(err, cases.ErrNotParticipant)
	_, err = s.svc.AddComment(ctx, s.client.ID, s.kase.ID, "   ")
	s.ErrorIs(err, cases.ErrEmptyComment)

	thread, err := s.svc.ListComments(ctx, s.provider.ID, s.kase.ID)
	s.Require().NoError(err)
	s.Require().Len(thread, 2)
	s.Equal("Great work so far", thread[0].Body)

	_, err = s.svc.ListComments(ctx, s.investor1.ID, s.kase.ID)
	s.ErrorIs(err, cases.ErrNotParticipant)

	admin := dbtest.SeedUser(s.T(), s.env.DB, "moderator", 0, user.RoleAdmin)
	thread, err = s.svc.ListComments(ctx, admin.ID, s.kase.ID)
	s.Require().NoError(err)
	s.Len(thread, 2)
}

func TestCaseworkTestSuite(t *testing.T) {
	suite.Run(t, new(CaseworkTestSuite))
}

func TestComplete_CustomSchedule(t *testing.T) {
	env := dbtest.NewEnv(t)
	env.Deps.Config.Ledger.RewardPositive = 25
	env.Deps.Config.Ledger.PayoutBonusPercent = 20
	env.Classifier.Sentiment = cases.SentimentPositive
	svc := casework.New(env.Deps)

	client := dbtest.SeedUser(t, env.DB, "client", 0, user.RoleClient)
	provider := dbtest.SeedUser(t, env.DB, "provider", 0, user.RoleProvider)
	investor := dbtest.SeedUser(t, env.DB, "investor", 0, user.RoleInvestor)
	kase := dbtest.SeedCase(t, env.DB, client.ID, provider.ID, cases.StatusNew)
	inv, err := investment.New(investor.ID, kase.ID, 15)
	require.NoError(t, err)
	require.NoError(t, infrarepo.NewInvestmentRepository(env.DB).Create(context.Background(), inv))

	_, err = svc.Complete(context.Background(), client.ID, kase.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), dbtest.Balance(t, env.DB, client.ID))
	assert.Equal(t, int64(18), dbtest.Balance(t, env.DB, investor.ID))
}
