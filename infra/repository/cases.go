package repository

import (
	"context"

	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type caseRepository struct {
	db *gorm.DB
}

// NewCaseRepository returns a gorm backed CaseRepository.
func NewCaseRepository(db *gorm.DB) repository.CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) Create(ctx context.Context, c *cases.Case) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toCaseModel(c)).Error
	})
}

func (r *caseRepository) Get(ctx context.Context, id uuid.UUID) (*cases.Case, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *caseRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*cases.Case, error) {
	return r.get(r.db.WithContext(ctx).Clauses(forUpdate), id)
}

func (r *caseRepository) get(db *gorm.DB, id uuid.UUID) (*cases.Case, error) {
	var m Case
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, cases.ErrCaseNotFound)
	}
	return toCaseDomain(&m), nil
}

func (r *caseRepository) Update(ctx context.Context, c *cases.Case) error {
	m := toCaseModel(c)
	res := r.db.WithContext(ctx).Model(&Case{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"title":               m.Title,
			"status":              m.Status,
			"sentiment":           m.Sentiment,
			"payout_processed_at": m.PayoutProcessedAt,
			"last_update":         m.LastUpdate,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return cases.ErrCaseNotFound
	}
	return nil
}

func (r *caseRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*cases.Case, error) {
	var models []Case
	err := r.db.WithContext(ctx).
		Where("client_id = ? OR provider_id = ?", userID, userID).
		Order("last_update DESC").
		Find(&models).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*cases.Case, 0, len(models))
	for i := range models {
		result = append(result, toCaseDomain(&models[i]))
	}
	return result, nil
}

func (r *caseRepository) AddComment(ctx context.Context, c *cases.Comment) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&Comment{
			ID:        c.ID,
			CaseID:    c.CaseID,
			AuthorID:  c.AuthorID,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		}).Error
	})
}

func (r *caseRepository) ListComments(ctx context.Context, caseID uuid.UUID) ([]*cases.Comment, error) {
	var models []Comment
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*cases.Comment, 0, len(models))
	for i := range models {
		result = append(result, toCommentDomain(&models[i]))
	}
	return result, nil
}
