package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/marketledger/infra/initializer"
	"github.com/amirasaad/marketledger/pkg/app"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/scheduler"
	"github.com/amirasaad/marketledger/webapi"
	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Logger.Error("Failed to release dependencies", "error", err)
		}
	}()
	logger := deps.Logger

	fiberApp, sched, err := setup(deps.ToAppDeps(), cfg)
	if err != nil {
		return err
	}
	if sched != nil {
		defer func() { <-sched.Stop().Done() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

// setup builds the services, the HTTP app and, when enabled, the overdue
// loan scheduler.
func setup(deps *config.Deps, cfg *config.App) (*fiber.App, *scheduler.Scheduler, error) {
	a := app.New(deps, cfg)
	fiberApp := webapi.SetupApp(a)

	if cfg.Scheduler == nil || !cfg.Scheduler.Enabled {
		return fiberApp, nil, nil
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sched := scheduler.New(a.LendingService, cfg.Scheduler, logger)
	if err := sched.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	return fiberApp, sched, nil
}
