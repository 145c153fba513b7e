package gormrepo

import (
	"context"
	"errors"

	"loanlink-backend/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

// GetByID accepts either the record id or the LN- display code.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Loan, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id string) (*loan.Loan, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *LoanRepository) first(q *gorm.DB, id string) (*loan.Loan, error) {
	var out loan.Loan
	err := q.Where("id = ? OR loan_id = ?", id, id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loan.Filter) ([]loan.Loan, error) {
	q := r.db.WithContext(ctx).Model(&loan.Loan{})
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.OnlyHome {
		q = q.Where("show_on_home = ?", true)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []loan.Loan
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *LoanRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? OR loan_id = ?", id, id).Delete(&loan.Loan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return loan.ErrNotFound
	}
	return nil
}
