package repository

import (
	"context"

	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns a gorm backed LedgerRepository.
func NewLedgerRepository(db *gorm.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Append inserts entries. A duplicate idempotency key surfaces as
// domain.ErrAlreadyExists and aborts the surrounding transaction.
func (r *ledgerRepository) Append(ctx context.Context, entries ...*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]*LedgerEntry, 0, len(entries))
	for _, e := range entries {
		models = append(models, toLedgerModel(e))
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(models).Error
	})
}

func (r *ledgerRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&LedgerEntry{}).
		Where("idempotency_key = ?", key).
		Count(&count).Error
	if err != nil {
		return false, MapGormErrorToDomain(err)
	}
	return count > 0, nil
}

func (r *ledgerRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*ledger.Entry, error) {
	db := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	return r.find(db)
}

func (r *ledgerRepository) ListAll(ctx context.Context) ([]*ledger.Entry, error) {
	return r.find(r.db.WithContext(ctx).Order("created_at ASC"))
}

func (r *ledgerRepository) find(db *gorm.DB) ([]*ledger.Entry, error) {
	var models []LedgerEntry
	if err := db.Find(&models).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*ledger.Entry, 0, len(models))
	for i := range models {
		result = append(result, toLedgerDomain(&models[i]))
	}
	return result, nil
}
