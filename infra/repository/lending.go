package repository

import (
	"context"
	"time"

	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type creditRequestRepository struct {
	db *gorm.DB
}

// NewCreditRequestRepository returns a gorm backed CreditRequestRepository.
func NewCreditRequestRepository(db *gorm.DB) repository.CreditRequestRepository {
	return &creditRequestRepository{db: db}
}

func (r *creditRequestRepository) Create(ctx context.Context, req *lending.CreditRequest) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toCreditRequestModel(req)).Error
	})
}

func (r *creditRequestRepository) Get(ctx context.Context, id uuid.UUID) (*lending.CreditRequest, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *creditRequestRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*lending.CreditRequest, error) {
	return r.get(r.db.WithContext(ctx).Clauses(forUpdate), id)
}

func (r *creditRequestRepository) get(db *gorm.DB, id uuid.UUID) (*lending.CreditRequest, error) {
	var m CreditRequest
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, lending.ErrRequestNotFound)
	}
	return toCreditRequestDomain(&m), nil
}

func (r *creditRequestRepository) Update(ctx context.Context, req *lending.CreditRequest) error {
	m := toCreditRequestModel(req)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Model(&CreditRequest{}).
			Where("id = ?", req.ID).
			Updates(map[string]any{
				"status":     m.Status,
				"decided_by": m.DecidedBy,
				"decided_at": m.DecidedAt,
				"loan_id":    m.LoanID,
			}).Error
	})
}

func (r *creditRequestRepository) List(
	ctx context.Context,
	filter repository.CreditRequestFilter,
) ([]*lending.CreditRequest, error) {
	db := r.db.WithContext(ctx)
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", string(filter.Status))
	}
	var models []CreditRequest
	if err := db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*lending.CreditRequest, 0, len(models))
	for i := range models {
		result = append(result, toCreditRequestDomain(&models[i]))
	}
	return result, nil
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository returns a gorm backed LoanRepository.
func NewLoanRepository(db *gorm.DB) repository.LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, l *lending.Loan) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toLoanModel(l)).Error
	})
}

func (r *loanRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*lending.Loan, error) {
	var m Loan
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, lending.ErrLoanNotFound)
	}
	return toLoanDomain(&m), nil
}

func (r *loanRepository) Update(ctx context.Context, l *lending.Loan) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Model(&Loan{}).
			Where("id = ?", l.ID).
			Updates(map[string]any{
				"status":    string(l.Status),
				"repaid_at": l.RepaidAt,
			}).Error
	})
}

func (r *loanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*lending.Loan, error) {
	var models []Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*lending.Loan, 0, len(models))
	for i := range models {
		result = append(result, toLoanDomain(&models[i]))
	}
	return result, nil
}

func (r *loanRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Loan{}).
		Where("status = ? AND due_date < ?", string(lending.LoanOutstanding), now).
		Update("status", string(lending.LoanOverdue))
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected, nil
}

type fundRepository struct {
	db *gorm.DB
}

// NewFundRepository returns a gorm backed FundRepository.
func NewFundRepository(db *gorm.DB) repository.FundRepository {
	return &fundRepository{db: db}
}

func (r *fundRepository) Get(ctx context.Context) (*lending.Fund, error) {
	return r.get(r.db.WithContext(ctx))
}

func (r *fundRepository) GetForUpdate(ctx context.Context) (*lending.Fund, error) {
	return r.get(r.db.WithContext(ctx).Clauses(forUpdate))
}

func (r *fundRepository) get(db *gorm.DB) (*lending.Fund, error) {
	var m Fund
	if err := db.First(&m, "id = ?", lending.FundID).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return toFundDomain(&m), nil
}

func (r *fundRepository) Update(ctx context.Context, f *lending.Fund) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Model(&Fund{}).
			Where("id = ?", lending.FundID).
			Updates(map[string]any{
				"total_capital":    f.TotalCapital,
				"total_loaned_out": f.TotalLoanedOut,
			}).Error
	})
}

func (r *fundRepository) Ensure(ctx context.Context, capital int64) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Fund{ID: lending.FundID, TotalCapital: capital}).Error
	})
}
