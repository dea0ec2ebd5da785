// Package user provides business logic for user registration and lookup.
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/amirasaad/marketledger/pkg/utils"
	"github.com/google/uuid"
)

// Service provides business logic for user operations.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a new Service with a UnitOfWork and logger.
func New(
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:    uow,
		logger: logger,
	}
}

// Register creates a user with a zero balance in a transaction.
func (s *Service) Register(
	ctx context.Context,
	username, email, password string,
	role user.Role,
) (u *user.User, err error) {
	log := s.logger.With("username", username, "role", role)
	if !utils.IsEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	u, err = user.New(username, email, password, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, u)
	})
	if err != nil {
		log.Warn("Register failed", "error", err)
		return nil, err
	}
	log.Info("User registered", "userID", u.ID)
	return u, nil
}

// GetUser retrieves a user by ID in a transaction.
func (s *Service) GetUser(
	ctx context.Context,
	userID uuid.UUID,
) (u *user.User, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = repo.Get(ctx, userID)
		return err
	})
	if err != nil {
		u = nil
	}
	return
}

// GetUserByUsername retrieves a user by username in a transaction.
func (s *Service) GetUserByUsername(
	ctx context.Context,
	username string,
) (u *user.User, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = repo.GetByUsername(ctx, username)
		return err
	})
	if err != nil {
		u = nil
	}
	return
}
