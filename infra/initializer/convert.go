package initializer

import (
	"errors"
	"io"
	"log/slog"

	"github.com/amirasaad/marketledger/pkg/cache"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/provider"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps holds the infrastructure built at startup, including the handles
// that must be closed on shutdown.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Uow          repository.UnitOfWork
	EventBus     eventbus.Bus
	BalanceCache cache.BalanceCache
	Classifier   provider.SentimentClassifier
	Logger       *slog.Logger
	Config       *config.App

	closers []io.Closer
}

// ToAppDeps converts initializer.Deps to the dependency set services consume.
func (d *Deps) ToAppDeps() *config.Deps {
	return &config.Deps{
		Uow:          d.Uow,
		EventBus:     d.EventBus,
		BalanceCache: d.BalanceCache,
		Classifier:   d.Classifier,
		Logger:       d.Logger,
		Config:       d.Config,
	}
}

// Close releases brokers, the redis client and the database pool, in that order.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Deps) onClose(c io.Closer) {
	d.closers = append(d.closers, c)
}
