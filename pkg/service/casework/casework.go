// Package casework manages the case lifecycle and settles completed cases.
//
// Completing a case is the one place where credits are created for several
// users at once. The comment thread is classified before any transaction is
// opened; then, under a lock on the case row, every participant reward and
// every investment payout is applied together with the status change and the
// payoutProcessedAt marker. Either all of it commits or none of it does.
package casework

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/metrics"
	"github.com/amirasaad/marketledger/pkg/provider"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
)

// Payment is a credit applied to a user during completion.
type Payment struct {
	UserID    uuid.UUID `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
}

// Completion is the outcome of a settled case.
type Completion struct {
	Case      *cases.Case     `json:"case"`
	Sentiment cases.Sentiment `json:"sentiment"`
	Rewards   []Payment       `json:"rewards"`
	Payouts   []Payment       `json:"payouts"`
}

// Service provides case lifecycle operations.
type Service struct {
	uow        repository.UnitOfWork
	bus        eventbus.Bus
	classifier provider.SentimentClassifier
	rewards    cases.RewardSchedule
	payouts    investment.PayoutPolicy
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a casework Service.
func New(deps config.Deps) *Service {
	rewards := cases.DefaultRewardSchedule()
	payouts := investment.DefaultPayoutPolicy()
	if deps.Config != nil && deps.Config.Ledger != nil {
		rewards = cases.RewardSchedule{
			Positive: deps.Config.Ledger.RewardPositive,
			Neutral:  deps.Config.Ledger.RewardNeutral,
		}
		payouts = investment.NewPayoutPolicy(deps.Config.Ledger.PayoutBonusPercent)
	}
	return &Service{
		uow:        deps.Uow,
		bus:        deps.EventBus,
		classifier: deps.Classifier,
		rewards:    rewards,
		payouts:    payouts,
		logger:     deps.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a case between a client and a provider.
func (s *Service) Create(
	ctx context.Context,
	clientID, providerID uuid.UUID,
	title string,
) (c *cases.Case, err error) {
	c, err = cases.New(title, clientID, providerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		for _, id := range []uuid.UUID{clientID, providerID} {
			if _, err := users.Get(ctx, id); err != nil {
				return err
			}
		}
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		return caseRepo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Case created", "caseID", c.ID, "client", clientID, "provider", providerID)
	return c, nil
}

// Get returns a case by id.
func (s *Service) Get(ctx context.Context, caseID uuid.UUID) (c *cases.Case, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		c, err = caseRepo.Get(ctx, caseID)
		return err
	})
	return
}

// ListForUser returns the cases where the user is client or provider.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) (list []*cases.Case, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		list, err = caseRepo.ListForUser(ctx, userID)
		return err
	})
	return
}

// UpdateStatus moves a case to next. Moving to completed settles the case
// through Complete; the returned Completion is nil for any other status.
func (s *Service) UpdateStatus(
	ctx context.Context,
	actorID, caseID uuid.UUID,
	next cases.Status,
) (*cases.Case, *Completion, error) {
	if next == cases.StatusCompleted {
		completion, err := s.Complete(ctx, actorID, caseID)
		if err != nil {
			return nil, nil, err
		}
		return completion.Case, completion, nil
	}
	if !next.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown status %q", cases.ErrInvalidStatusTransition, next)
	}

	var c *cases.Case
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		c, err = caseRepo.GetForUpdate(ctx, caseID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, uow, c, actorID); err != nil {
			return err
		}
		if err := c.Transition(next, s.now()); err != nil {
			return err
		}
		return caseRepo.Update(ctx, c)
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Case status updated", "caseID", caseID, "status", next)
	return c, nil, nil
}

// Complete classifies the case thread and settles the case: participant
// rewards by sentiment and a payout for every investment, exactly once.
func (s *Service) Complete(ctx context.Context, actorID, caseID uuid.UUID) (result *Completion, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation("complete_case", started, err) }()
	log := s.logger.With("caseID", caseID, "actor", actorID)

	var comments []*cases.Comment
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		c, err := caseRepo.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, uow, c, actorID); err != nil {
			return err
		}
		if c.PayoutProcessedAt != nil {
			return cases.ErrPayoutAlreadyProcessed
		}
		if !c.Status.CanTransition(cases.StatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", cases.ErrInvalidStatusTransition, c.Status, cases.StatusCompleted)
		}
		comments, err = caseRepo.ListComments(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The classifier is a remote call and runs with no transaction open.
	sentiment, err := s.classifier.Classify(ctx, comments)
	if err != nil {
		log.Error("Classification failed", "classifier", s.classifier.Name(), "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrClassificationFailed, err)
	}
	log = log.With("sentiment", sentiment)

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		result, err = s.settle(ctx, uow, caseID, sentiment)
		return err
	})
	if err != nil {
		log.Warn("Case settlement failed", "error", err)
		return nil, err
	}

	opts := make([]events.CaseCompletedOpt, 0, len(result.Rewards)+len(result.Payouts))
	for _, p := range result.Rewards {
		opts = append(opts, events.WithReward(p.UserID, p.Amount))
	}
	for _, p := range result.Payouts {
		opts = append(opts, events.WithPayout(p.UserID, p.Amount))
	}
	log.Info("Case completed", "rewards", len(result.Rewards), "payouts", len(result.Payouts))
	eventbus.Publish(ctx, s.bus, log, events.NewCaseCompleted(caseID, string(sentiment), opts...))
	return result, nil
}

func (s *Service) settle(
	ctx context.Context,
	uow repository.UnitOfWork,
	caseID uuid.UUID,
	sentiment cases.Sentiment,
) (*Completion, error) {
	caseRepo, err := uow.CaseRepository()
	if err != nil {
		return nil, err
	}
	users, err := uow.UserRepository()
	if err != nil {
		return nil, err
	}
	investments, err := uow.InvestmentRepository()
	if err != nil {
		return nil, err
	}
	journal, err := uow.LedgerRepository()
	if err != nil {
		return nil, err
	}

	c, err := caseRepo.GetForUpdate(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.PayoutProcessedAt != nil {
		return nil, cases.ErrPayoutAlreadyProcessed
	}
	now := s.now()
	if err := c.Transition(cases.StatusCompleted, now); err != nil {
		return nil, err
	}
	// Entries already journaled under this case's keys mean it was paid.
	if paid, err := journal.ExistsByKey(ctx, ledger.RewardKey(c.ID, c.ClientID)); err != nil {
		return nil, err
	} else if paid {
		return nil, cases.ErrPayoutAlreadyProcessed
	}

	stakes, err := investments.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	ids := []uuid.UUID{c.ClientID, c.ProviderID}
	for _, inv := range stakes {
		ids = append(ids, inv.InvestorID)
	}
	locked, err := users.LockMany(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, fmt.Errorf("%s: %w", id, user.ErrUserNotFound)
		}
	}

	result := &Completion{Case: c, Sentiment: sentiment}
	var entries []*ledger.Entry
	touched := make(map[uuid.UUID]struct{}, len(locked))

	if reward := s.rewards.For(sentiment); reward > 0 {
		for _, id := range []uuid.UUID{c.ClientID, c.ProviderID} {
			u := locked[id]
			if err := u.Credit(reward); err != nil {
				return nil, err
			}
			touched[id] = struct{}{}
			key := ledger.RewardKey(c.ID, id)
			entries = append(entries,
				ledger.NewEntry(id, ledger.KindReward, reward, u.Credits, "case:"+c.ID.String()).WithKey(key))
			result.Rewards = append(result.Rewards, Payment{UserID: id, Amount: reward, Reference: key})
		}
	}

	for _, inv := range stakes {
		amount := s.payouts.Payout(inv.Amount)
		u := locked[inv.InvestorID]
		if err := u.Credit(amount); err != nil {
			return nil, err
		}
		touched[inv.InvestorID] = struct{}{}
		key := ledger.PayoutKey(c.ID, inv.ID)
		entries = append(entries,
			ledger.NewEntry(inv.InvestorID, ledger.KindPayout, amount, u.Credits, "investment:"+inv.ID.String()).WithKey(key))
		result.Payouts = append(result.Payouts, Payment{UserID: inv.InvestorID, Amount: amount, Reference: key})
	}

	for id := range touched {
		if err := users.UpdateBalance(ctx, locked[id]); err != nil {
			return nil, err
		}
	}
	if len(entries) > 0 {
		if err := journal.Append(ctx, entries...); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return nil, cases.ErrPayoutAlreadyProcessed
			}
			return nil, err
		}
	}

	if err := c.MarkPaidOut(sentiment, now); err != nil {
		return nil, err
	}
	if err := caseRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return result, nil
}

// AddComment appends a comment to an open case thread.
func (s *Service) AddComment(
	ctx context.Context,
	authorID, caseID uuid.UUID,
	body string,
) (comment *cases.Comment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		c, err := caseRepo.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if !c.IsParticipant(authorID) {
			return cases.ErrNotParticipant
		}
		if c.Status.Terminal() {
			return cases.ErrCaseClosed
		}
		comment, err = cases.NewComment(caseID, authorID, body)
		if err != nil {
			return err
		}
		return caseRepo.AddComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the thread of a case, oldest first. Only the case
// participants and admins may read it.
func (s *Service) ListComments(ctx context.Context, actorID, caseID uuid.UUID) (list []*cases.Comment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		c, err := caseRepo.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, uow, c, actorID); err != nil {
			return err
		}
		list, err = caseRepo.ListComments(ctx, caseID)
		return err
	})
	return
}

// authorize allows participants and admins to drive a case.
func (s *Service) authorize(ctx context.Context, uow repository.UnitOfWork, c *cases.Case, actorID uuid.UUID) error {
	if c.IsParticipant(actorID) {
		return nil
	}
	users, err := uow.UserRepository()
	if err != nil {
		return err
	}
	actor, err := users.Get(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return cases.ErrNotParticipant
	}
	return nil
}
