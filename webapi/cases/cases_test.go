package cases_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/service/casework"
	"github.com/amirasaad/marketledger/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CasesTestSuite struct {
	suite.Suite
	h         *testutils.Harness
	client    testutils.TestUser
	provider  testutils.TestUser
	investor1 testutils.TestUser
	investor2 testutils.TestUser
}

func (s *CasesTestSuite) SetupTest() {
	s.h = testutils.New(s.T())
	s.client = s.h.Register("client", "client")
	s.provider = s.h.Register("provider", "provider")
	s.investor1 = s.h.Register("investor1", "investor")
	s.investor2 = s.h.Register("investor2", "investor")
	s.h.Fund(s.investor1, 100)
	s.h.Fund(s.investor2, 50)
	s.h.Env.Classifier.Sentiment = cases.SentimentPositive
}

func (s *CasesTestSuite) createCase() *cases.Case {
	body := fmt.Sprintf(`{"title":"Logo design","provider_id":%q}`, s.provider.ID)
	status, env := s.h.Do(http.MethodPost, "/cases", body, s.client.Token)
	s.Require().Equal(fiber.StatusCreated, status, env.Detail)
	c := testutils.Decode[cases.Case](s.T(), env)
	return &c
}

func (s *CasesTestSuite) invest(caseID fmt.Stringer, investor testutils.TestUser, amount int64) (int, testutils.Envelope) {
	return s.h.Do(http.MethodPost, fmt.Sprintf("/cases/%s/investments", caseID), fmt.Sprintf(`{"amount":%d}`, amount), investor.Token)
}

func (s *CasesTestSuite) balance(u testutils.TestUser) int64 {
	status, env := s.h.Do(http.MethodGet, "/credits/balance", "", u.Token)
	s.Require().Equal(fiber.StatusOK, status)
	return testutils.Decode[map[string]int64](s.T(), env)["credits"]
}

func (s *CasesTestSuite) TestCompleteRewardsAndPaysOut() {
	c := s.createCase()

	status, env := s.invest(c.ID, s.investor1, 100)
	s.Require().Equal(fiber.StatusCreated, status, env.Detail)
	inv := testutils.Decode[investment.Investment](s.T(), env)
	s.Equal(int64(100), inv.Amount)
	status, _ = s.invest(c.ID, s.investor2, 50)
	s.Require().Equal(fiber.StatusCreated, status)

	status, env = s.h.Do(http.MethodPost, fmt.Sprintf("/cases/%s/comments", c.ID), `{"body":"Excelente trabajo"}`, s.client.Token)
	s.Require().Equal(fiber.StatusCreated, status, env.Detail)

	status, env = s.h.Do(http.MethodPost, fmt.Sprintf("/cases/%s/complete", c.ID), "", s.client.Token)
	s.Require().Equal(fiber.StatusOK, status, env.Detail)
	completion := testutils.Decode[casework.Completion](s.T(), env)
	s.Equal(cases.SentimentPositive, completion.Sentiment)
	s.Len(completion.Rewards, 2)
	s.Len(completion.Payouts, 2)

	s.Equal(int64(10), s.balance(s.client))
	s.Equal(int64(10), s.balance(s.provider))
	s.Equal(int64(110), s.balance(s.investor1))
	s.Equal(int64(55), s.balance(s.investor2))

	status, env = s.h.Do(http.MethodPost, fmt.Sprintf("/cases/%s/complete", c.ID), "", s.client.Token)
	s.Equal(fiber.StatusConflict, status)
	s.False(env.Success)
	s.Equal(int64(110), s.balance(s.investor1))
}

func (s *CasesTestSuite) TestStatusFlow() {
	c := s.createCase()
	path := fmt.Sprintf("/cases/%s/status", c.ID)

	status, env := s.h.Do(http.MethodPatch, path, `{"status":"in-progress"}`, s.provider.Token)
	s.Require().Equal(fiber.StatusOK, status, env.Detail)
	s.Equal(cases.StatusInProgress, testutils.Decode[cases.Case](s.T(), env).Status)

	status, _ = s.h.Do(http.MethodPatch, path, `{"status":"new"}`, s.provider.Token)
	s.Equal(fiber.StatusConflict, status)

	status, _ = s.h.Do(http.MethodPatch, path, `{"status":"archived"}`, s.provider.Token)
	s.Equal(fiber.StatusBadRequest, status)

	status, _ = s.h.Do(http.MethodPatch, path, `{"status":"cancelled"}`, s.investor1.Token)
	s.Equal(fiber.StatusForbidden, status)

	status, env = s.h.Do(http.MethodPatch, path, `{"status":"completed"}`, s.client.Token)
	s.Require().Equal(fiber.StatusOK, status, env.Detail)
	s.Equal("Case completed", env.Message)

	status, _ = s.invest(c.ID, s.investor1, 10)
	s.Equal(fiber.StatusConflict, status)
}

func (s *CasesTestSuite) TestInvestRejections() {
	c := s.createCase()
	s.h.Fund(s.client, 100)

	status, _ := s.invest(c.ID, s.client, 10)
	s.Equal(fiber.StatusUnprocessableEntity, status, "self dealing")

	status, _ = s.invest(c.ID, s.investor2, 51)
	s.Equal(fiber.StatusUnprocessableEntity, status, "insufficient credits")

	status, _ = s.h.Do(http.MethodPost, "/cases/not-a-uuid/investments", `{"amount":1}`, s.investor1.Token)
	s.Equal(fiber.StatusBadRequest, status)

	status, _ = s.invest(s.client.ID, s.investor1, 10)
	s.Equal(fiber.StatusNotFound, status, "unknown case")

	status, env := s.h.Do(http.MethodGet, "/investments", "", s.investor2.Token)
	s.Require().Equal(fiber.StatusOK, status)
	s.Empty(testutils.Decode[[]investment.Investment](s.T(), env))
}

func (s *CasesTestSuite) TestListAndComments() {
	c := s.createCase()

	status, env := s.h.Do(http.MethodGet, "/cases", "", s.provider.Token)
	s.Require().Equal(fiber.StatusOK, status)
	s.Len(testutils.Decode[[]cases.Case](s.T(), env), 1)

	status, env = s.h.Do(http.MethodGet, fmt.Sprintf("/cases/%s", c.ID), "", s.investor1.Token)
	s.Require().Equal(fiber.StatusOK, status)
	s.Equal(c.ID, testutils.Decode[cases.Case](s.T(), env).ID)

	status, _ = s.h.Do(http.MethodPost, fmt.Sprintf("/cases/%s/comments", c.ID), `{"body":"hello"}`, s.investor1.Token)
	s.Equal(fiber.StatusForbidden, status)

	status, _ = s.h.Do(http.MethodPost, fmt.Sprintf("/cases/%s/comments", c.ID), `{"body":"on it"}`, s.provider.Token)
	s.Require().Equal(fiber.StatusCreated, status)

	status, env = s.h.Do(http.MethodGet, fmt.Sprintf("/cases/%s/comments", c.ID), "", s.client.Token)
	s.Require().Equal(fiber.StatusOK, status)
	comments := testutils.Decode[[]cases.Comment](s.T(), env)
	s.Require().Len(comments, 1)
	s.Equal("on it", comments[0].Body)

	status, env = s.h.Do(http.MethodGet, fmt.Sprintf("/cases/%s/comments", c.ID), "", s.investor1.Token)
	s.Equal(fiber.StatusForbidden, status)
	s.False(env.Success)
}

func TestCasesTestSuite(t *testing.T) {
	suite.Run(t, new(CasesTestSuite))
}

func TestCreateCase_UnknownProvider(t *testing.T) {
	h := testutils.New(t)
	client := h.Register("client", "client")

	status, env := h.Do(http.MethodPost, "/cases", fmt.Sprintf(`{"title":"x","provider_id":%q}`, uuid.New()), client.Token)
	assert.Equal(t, fiber.StatusNotFound, status, env.Detail)
	require.False(t, env.Success)
}
