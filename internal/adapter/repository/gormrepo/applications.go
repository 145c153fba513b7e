package gormrepo

import (
	"context"
	"errors"

	"loanlink-backend/internal/domain/application"

	"gorm.io/gorm"
)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, a *application.Application) error {
	err := r.db.WithContext(ctx).Save(a).Error
	if isUniqueViolation(err) && a.Payment.TransactionID != "" {
		return application.ErrTxReused
	}
	return err
}

// GetByID accepts either the record id or the APP- display code.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *ApplicationRepository) GetByIDForUpdate(ctx context.Context, id string) (*application.Application, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *ApplicationRepository) first(q *gorm.DB, id string) (*application.Application, error) {
	var out application.Application
	err := q.Where("id = ? OR application_id = ?", id, id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ApplicationRepository) List(ctx context.Context, f application.Filter) ([]application.Application, error) {
	q := r.db.WithContext(ctx).Model(&application.Application{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserEmail != "" {
		q = q.Where("user_email = ?", f.UserEmail)
	}

	var out []application.Application
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}
