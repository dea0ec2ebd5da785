package config

import (
	"log/slog"

	"github.com/amirasaad/marketledger/pkg/cache"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/provider"
	"github.com/amirasaad/marketledger/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow          repository.UnitOfWork
	EventBus     eventbus.Bus
	BalanceCache cache.BalanceCache
	Classifier   provider.SentimentClassifier
	Logger       *slog.Logger
	Config       *App
}
