// Package credit moves credits between users and serves balance reads.
//
// Transfer is the only peer-to-peer write path. Both user rows are locked in
// ascending id order inside one transaction, the sender's balance is checked
// against the locked row, and a ledger entry is appended for each side.
package credit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/pkg/cache"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/metrics"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const defaultBalanceTTL = 30 * time.Second

// Receipt summarizes a committed transfer.
type Receipt struct {
	Message          string `json:"message"`
	SenderBalance    int64  `json:"sender_balance"`
	RecipientBalance int64  `json:"recipient_balance"`
}

// Service provides credit transfer and balance operations.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	cache  cache.BalanceCache
	ttl    time.Duration
	loads  singleflight.Group
	logger *slog.Logger
}

// New creates a credit Service. A nil BalanceCache disables caching.
func New(deps config.Deps) *Service {
	ttl := defaultBalanceTTL
	if deps.Config != nil && deps.Config.Cache != nil && deps.Config.Cache.TTL > 0 {
		ttl = deps.Config.Cache.TTL
	}
	return &Service{
		uow:    deps.Uow,
		bus:    deps.EventBus,
		cache:  deps.BalanceCache,
		ttl:    ttl,
		logger: deps.Logger,
	}
}

// Transfer moves amount credits from sender to recipient atomically.
func (s *Service) Transfer(
	ctx context.Context,
	senderID, recipientID uuid.UUID,
	amount int64,
) (receipt *Receipt, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation("transfer", started, err) }()

	log := s.logger.With("sender", senderID, "recipient", recipientID, "amount", amount)
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if senderID == recipientID {
		return nil, domain.ErrSelfTransfer
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		journal, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		locked, err := users.LockMany(ctx, senderID, recipientID)
		if err != nil {
			return err
		}
		sender, ok := locked[senderID]
		if !ok {
			return fmt.Errorf("sender %s: %w", senderID, user.ErrUserNotFound)
		}
		recipient, ok := locked[recipientID]
		if !ok {
			return fmt.Errorf("recipient %s: %w", recipientID, user.ErrUserNotFound)
		}

		if err := sender.Debit(amount); err != nil {
			return err
		}
		if err := recipient.Credit(amount); err != nil {
			return err
		}
		if err := users.UpdateBalance(ctx, sender); err != nil {
			return err
		}
		if err := users.UpdateBalance(ctx, recipient); err != nil {
			return err
		}

		if err := journal.Append(ctx,
			ledger.NewEntry(sender.ID, ledger.KindTransferOut, -amount, sender.Credits, "user:"+recipient.ID.String()),
			ledger.NewEntry(recipient.ID, ledger.KindTransferIn, amount, recipient.Credits, "user:"+sender.ID.String()),
		); err != nil {
			return err
		}

		receipt = &Receipt{
			Message:          fmt.Sprintf("Transferred %d credits", amount),
			SenderBalance:    sender.Credits,
			RecipientBalance: recipient.Credits,
		}
		return nil
	})
	if err != nil {
		log.Warn("Transfer failed", "error", err)
		return nil, err
	}

	log.Info("Transfer committed", "senderBalance", receipt.SenderBalance)
	eventbus.Publish(ctx, s.bus, log, events.NewCreditsTransferred(senderID, recipientID, amount))
	return receipt, nil
}

// Balance returns the user's credits. Reads go through the balance cache when
// one is configured; concurrent misses for the same user share one query.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := s.logger.With("userID", userID)
	if s.cache != nil {
		credits, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			log.Warn("balance cache read failed", "error", err)
		} else if ok {
			return credits, nil
		}
	}

	v, err, _ := s.loads.Do(userID.String(), func() (any, error) {
		var gen uint64
		cacheable := s.cache != nil
		if cacheable {
			var err error
			if gen, err = s.cache.Generation(ctx, userID); err != nil {
				log.Warn("balance cache generation read failed", "error", err)
				cacheable = false
			}
		}
		var credits int64
		err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			users, err := uow.UserRepository()
			if err != nil {
				return err
			}
			u, err := users.Get(ctx, userID)
			if err != nil {
				return err
			}
			credits = u.Credits
			return nil
		})
		if err != nil {
			return nil, err
		}
		if cacheable {
			stored, err := s.cache.SetIfGeneration(ctx, userID, gen, credits, s.ttl)
			if err != nil {
				log.Warn("balance cache write failed", "error", err)
			} else if !stored {
				log.Debug("balance invalidated while loading, not cached")
			}
		}
		return credits, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
