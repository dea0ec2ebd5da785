// Package network manages user connections and the first-connection bonus.
package network

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/domain/network"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/metrics"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
)

const defaultBonus = 5

// Result describes a created connection.
type Result struct {
	Connection *network.Connection `json:"connection"`
	Bonus      int64               `json:"bonus"`
	Balance    int64               `json:"balance"`
}

// Service provides connection operations.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	bonus  int64
	logger *slog.Logger
}

// New creates a network Service.
func New(deps config.Deps) *Service {
	var bonus int64 = defaultBonus
	if deps.Config != nil && deps.Config.Ledger != nil {
		bonus = deps.Config.Ledger.NetworkBonus
	}
	return &Service{
		uow:    deps.Uow,
		bus:    deps.EventBus,
		bonus:  bonus,
		logger: deps.Logger,
	}
}

// Connect links owner and contact in both directions. The bonus goes to the
// initiating owner only, the first time they initiate a connection. Being
// added as someone else's contact does not consume it, so a user who was
// added first still earns the bonus when they later connect to someone.
func (s *Service) Connect(ctx context.Context, ownerID, contactID uuid.UUID) (res *Result, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation("connect", started, err) }()
	log := s.logger.With("owner", ownerID, "contact", contactID)

	forward, reverse, err := network.NewPair(ownerID, contactID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		conns, err := uow.ConnectionRepository()
		if err != nil {
			return err
		}
		journal, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		// The bonus flag lives on the owner row, so holding its lock
		// serializes concurrent first connections of the same user.
		owner, err := users.GetForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if _, err := users.Get(ctx, contactID); err != nil {
			return err
		}
		exists, err := conns.Exists(ctx, ownerID, contactID)
		if err != nil {
			return err
		}
		if exists {
			return network.ErrAlreadyConnected
		}
		if err := conns.Create(ctx, forward, reverse); err != nil {
			return err
		}

		res = &Result{Connection: forward, Balance: owner.Credits}
		if owner.NetworkBonusAwarded || s.bonus <= 0 {
			return nil
		}
		if err := owner.Credit(s.bonus); err != nil {
			return err
		}
		owner.NetworkBonusAwarded = true
		if err := users.UpdateBalance(ctx, owner); err != nil {
			return err
		}
		res.Bonus = s.bonus
		res.Balance = owner.Credits
		return journal.Append(ctx,
			ledger.NewEntry(ownerID, ledger.KindConnectionBonus, s.bonus, owner.Credits, "user:"+contactID.String()).
				WithKey(ledger.ConnectionBonusKey(ownerID)),
		)
	})
	if err != nil {
		log.Warn("Connect failed", "error", err)
		return nil, err
	}

	log.Info("Connection created", "bonus", res.Bonus)
	eventbus.Publish(ctx, s.bus, log, events.NewConnectionCreated(ownerID, contactID, res.Bonus))
	return res, nil
}

// List returns the owner's contacts.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) (list []*network.Connection, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		conns, err := uow.ConnectionRepository()
		if err != nil {
			return err
		}
		list, err = conns.ListByOwner(ctx, ownerID)
		return err
	})
	return
}
