package app

import (
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/service/auth"
	"github.com/amirasaad/marketledger/pkg/service/casework"
	"github.com/amirasaad/marketledger/pkg/service/credit"
	"github.com/amirasaad/marketledger/pkg/service/investment"
	"github.com/amirasaad/marketledger/pkg/service/ledger"
	"github.com/amirasaad/marketledger/pkg/service/lending"
	"github.com/amirasaad/marketledger/pkg/service/network"
	"github.com/amirasaad/marketledger/pkg/service/user"
)

// App bundles the services built from one set of dependencies.
type App struct {
	Deps              *config.Deps
	Config            *config.App
	AuthService       *auth.Service
	UserService       *user.Service
	CreditService     *credit.Service
	InvestmentService *investment.Service
	CaseService       *casework.Service
	LendingService    *lending.Service
	NetworkService    *network.Service
	LedgerService     *ledger.Service
}

// New builds the services and registers the event handlers on deps.EventBus.
func New(deps *config.Deps, cfg *config.App) *App {
	if deps.Config == nil {
		deps.Config = cfg
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()

	authMap := map[string]func() *auth.Service{
		"jwt": func() *auth.Service {
			return auth.NewWithJWT(deps.Uow, cfg.Auth.Jwt, deps.Logger)
		},
	}
	if authFactory, ok := authMap[cfg.Auth.Strategy]; ok {
		app.AuthService = authFactory()
	} else {
		app.AuthService = auth.NewWithBasic(deps.Uow, deps.Logger)
	}
	app.UserService = user.New(deps.Uow, deps.Logger)
	app.CreditService = credit.New(*deps)
	app.InvestmentService = investment.New(*deps)
	app.CaseService = casework.New(*deps)
	app.LendingService = lending.New(*deps)
	app.NetworkService = network.New(*deps)
	app.LedgerService = ledger.New(*deps)
	return app
}
