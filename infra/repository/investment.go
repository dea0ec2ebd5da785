package repository

import (
	"context"

	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type investmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository returns a gorm backed, append-only InvestmentRepository.
func NewInvestmentRepository(db *gorm.DB) repository.InvestmentRepository {
	return &investmentRepository{db: db}
}

func (r *investmentRepository) Create(ctx context.Context, inv *investment.Investment) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&Investment{
			ID:         inv.ID,
			InvestorID: inv.InvestorID,
			CaseID:     inv.CaseID,
			Amount:     inv.Amount,
			CreatedAt:  inv.CreatedAt,
		}).Error
	})
}

func (r *investmentRepository) ListByCase(
	ctx context.Context,
	caseID uuid.UUID,
) ([]*investment.Investment, error) {
	return r.list(r.db.WithContext(ctx).Where("case_id = ?", caseID))
}

func (r *investmentRepository) ListByInvestor(
	ctx context.Context,
	investorID uuid.UUID,
) ([]*investment.Investment, error) {
	return r.list(r.db.WithContext(ctx).Where("investor_id = ?", investorID))
}

func (r *investmentRepository) list(db *gorm.DB) ([]*investment.Investment, error) {
	var models []Investment
	if err := db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*investment.Investment, 0, len(models))
	for i := range models {
		result = append(result, toInvestmentDomain(&models[i]))
	}
	return result, nil
}
