package repository

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate is the row lock taken by every *ForUpdate read.
// The sqlite dialect drops it, which is fine for single-connection tests.
var forUpdate = clause.Locking{Strength: "UPDATE"}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm backed UserRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toUserModel(u)).Error
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.first(r.db.WithContext(ctx), "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(r.db.WithContext(ctx), "email = ?", email)
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.first(r.db.WithContext(ctx).Clauses(forUpdate), "id = ?", id)
}

func (r *userRepository) LockMany(
	ctx context.Context,
	ids ...uuid.UUID,
) (map[uuid.UUID]*user.User, error) {
	ordered := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	// A fixed acquisition order keeps two transfers between the same pair
	// of users from deadlocking.
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*user.User, len(ordered))
	for _, id := range ordered {
		u, err := r.GetForUpdate(ctx, id)
		if errors.Is(err, user.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = u
	}
	return locked, nil
}

func (r *userRepository) UpdateBalance(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"credits":               u.Credits,
			"network_bonus_awarded": u.NetworkBonusAwarded,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) first(db *gorm.DB, query string, arg any) (*user.User, error) {
	var m User
	if err := db.Where(query, arg).First(&m).Error; err != nil {
		return nil, notFoundAs(err, user.ErrUserNotFound)
	}
	return toUserDomain(&m), nil
}
