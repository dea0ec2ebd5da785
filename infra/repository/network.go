package repository

import (
	"context"

	"github.com/amirasaad/marketledger/pkg/domain/network"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository returns a gorm backed ConnectionRepository.
func NewConnectionRepository(db *gorm.DB) repository.ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Exists(ctx context.Context, ownerID, contactID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Connection{}).
		Where("owner_id = ? AND contact_id = ?", ownerID, contactID).
		Count(&count).Error
	if err != nil {
		return false, MapGormErrorToDomain(err)
	}
	return count > 0, nil
}

func (r *connectionRepository) Create(ctx context.Context, conns ...*network.Connection) error {
	if len(conns) == 0 {
		return nil
	}
	models := make([]Connection, 0, len(conns))
	for _, c := range conns {
		models = append(models, Connection{
			ID:        c.ID,
			OwnerID:   c.OwnerID,
			ContactID: c.ContactID,
			CreatedAt: c.CreatedAt,
		})
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&models).Error
	})
}

func (r *connectionRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*network.Connection, error) {
	var models []Connection
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*network.Connection, 0, len(models))
	for i := range models {
		result = append(result, toConnectionDomain(&models[i]))
	}
	return result, nil
}
