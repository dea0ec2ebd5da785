// Package dbtest provides an in-memory SQLite database migrated from the
// production gorm models, plus seed helpers for service tests.
package dbtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	infracache "github.com/amirasaad/marketledger/infra/cache"
	infraeventbus "github.com/amirasaad/marketledger/infra/eventbus"
	infraprovider "github.com/amirasaad/marketledger/infra/provider"
	infrarepo "github.com/amirasaad/marketledger/infra/repository"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a fresh, isolated database for t.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection serializes transactions the way row locks would.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(infrarepo.Models()...))
	return db
}

// SeedUser inserts a user with the given balance and role.
func SeedUser(t testing.TB, db *gorm.DB, username string, credits int64, role user.Role) *user.User {
	t.Helper()
	u := &user.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
		Credits:  credits,
	}
	require.NoError(t, infrarepo.NewUserRepository(db).Create(context.Background(), u))
	return u
}

// SeedCase inserts a case in the given status.
func SeedCase(t testing.TB, db *gorm.DB, client, provider uuid.UUID, status cases.Status) *cases.Case {
	t.Helper()
	c, err := cases.New("case "+uuid.NewString()[:6], client, provider)
	require.NoError(t, err)
	c.Status = status
	require.NoError(t, infrarepo.NewCaseRepository(db).Create(context.Background(), c))
	return c
}

// SeedFund creates the fund row with the given state.
func SeedFund(t testing.TB, db *gorm.DB, capital, loanedOut int64) {
	t.Helper()
	ctx := context.Background()
	repo := infrarepo.NewFundRepository(db)
	require.NoError(t, repo.Ensure(ctx, capital))
	require.NoError(t, repo.Update(ctx, &lending.Fund{
		ID:             lending.FundID,
		TotalCapital:   capital,
		TotalLoanedOut: loanedOut,
	}))
}

// Balance reads a user's stored credits.
func Balance(t testing.TB, db *gorm.DB, id uuid.UUID) int64 {
	t.Helper()
	u, err := infrarepo.NewUserRepository(db).Get(context.Background(), id)
	require.NoError(t, err)
	return u.Credits
}

// CountRows counts rows of model matching an optional where clause.
func CountRows(t testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// Env bundles a test database with in-memory collaborators wired the way
// the application wires them.
type Env struct {
	DB         *gorm.DB
	Deps       config.Deps
	Bus        *infraeventbus.MemoryEventBus
	Cache      *infracache.MemoryCache
	Classifier *infraprovider.StaticSentimentClassifier
}

// DefaultConfig returns the configuration defaults relevant to services.
func DefaultConfig() *config.App {
	return &config.App{
		Env:       "test",
		Cache:     &config.Cache{Driver: "memory", TTL: 30 * time.Second},
		RateLimit: &config.RateLimit{MaxRequests: 10000, Window: time.Minute},
		Ledger: &config.Ledger{
			PayoutBonusPercent: 10,
			RewardPositive:     10,
			RewardNeutral:      5,
			NetworkBonus:       5,
			RepaymentTermDays:  30,
			HistoryPageSize:    100,
		},
		Auth: &config.Auth{
			Strategy: "jwt",
			Jwt:      &config.Jwt{Secret: "test-secret", Expiry: time.Hour},
		},
	}
}

// NewEnv returns a fresh Env backed by New(t).
func NewEnv(t testing.TB) *Env {
	t.Helper()
	db := New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := infraeventbus.NewWithMemoryRecording(logger)
	balanceCache := infracache.NewMemoryCache()
	classifier := infraprovider.NewStaticSentimentClassifier("Neutral")
	return &Env{
		DB:         db,
		Bus:        bus,
		Cache:      balanceCache,
		Classifier: classifier,
		Deps: config.Deps{
			Uow:          infrarepo.NewUoW(db),
			EventBus:     bus,
			BalanceCache: balanceCache,
			Classifier:   classifier,
			Logger:       logger,
			Config:       DefaultConfig(),
		},
	}
}
