package loan

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "loanlink-backend/internal/domain/loan"
	"loanlink-backend/internal/domain/uow"
	"loanlink-backend/internal/domain/user"
	"loanlink-backend/internal/infrastructure/metrics"
	"loanlink-backend/pkg/id"

	"go.uber.org/zap"
)

type Usecase struct {
	repo        domain.Repository
	tx          uow.UnitOfWork
	log         *zap.Logger
	metrics     *metrics.Metrics
	publicLimit int
	now         func() time.Time
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork, log *zap.Logger, m *metrics.Metrics, publicLimit int) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if publicLimit <= 0 {
		publicLimit = 6
	}
	return &Usecase{
		repo:        r,
		tx:          tx,
		log:         log.Named("loan"),
		metrics:     m,
		publicLimit: publicLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) Create(ctx context.Context, actor string, in CreateLoanInput) (*domain.Loan, error) {
	if strings.TrimSpace(in.Title) == "" || in.Interest.IsNegative() || !in.MaxLimit.IsPositive() {
		return nil, domain.ErrInvalidInput
	}

	now := u.now()
	l := &domain.Loan{
		ID:          id.NewID32(),
		LoanID:      id.NewDisplayID(id.LoanPrefix),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Interest:    in.Interest,
		MaxLimit:    in.MaxLimit,
		EmiPlans:    domain.StringList(nonNil(in.EmiPlans)),
		Images:      domain.StringList(nonNil(in.Images)),
		ShowOnHome:  false,
		Status:      domain.StatusActive,
		CreatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	u.metrics.LoanTransition(string(l.Status))
	u.log.Info("loan created", zap.String("loan_id", l.LoanID), zap.String("by", actor))
	return l, nil
}

// ListPublic returns the newest home-page loans.
func (u *Usecase) ListPublic(ctx context.Context) ([]domain.Loan, error) {
	return u.repo.List(ctx, domain.Filter{OnlyHome: true, Limit: u.publicLimit})
}

func (u *Usecase) List(ctx context.Context, category string) ([]domain.Loan, error) {
	return u.repo.List(ctx, domain.Filter{Category: strings.TrimSpace(category)})
}

func (u *Usecase) ListMine(ctx context.Context, actor string) ([]domain.Loan, error) {
	return u.repo.List(ctx, domain.Filter{CreatedBy: actor})
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	return u.repo.GetByID(ctx, loanID)
}

// Update applies a merge patch. Existence is checked before authorization.
func (u *Usecase) Update(ctx context.Context, actor, loanID string, in UpdateLoanInput) (*domain.Loan, error) {
	p := in.patch()
	if p.Empty() {
		return nil, domain.ErrEmptyPatch
	}

	var out *domain.Loan
	err := u.tx.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		isAdmin, err := isAdmin(ctx, r.Users, actor)
		if err != nil {
			return err
		}
		if !l.CanModify(actor, isAdmin) {
			return domain.ErrNotOwner
		}
		if p.ShowOnHome != nil && !isAdmin {
			return domain.ErrVisibilityAdmin
		}

		if err := p.Apply(l); err != nil {
			return err
		}
		l.UpdatedAt = u.now()
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("loan updated", zap.String("loan_id", out.LoanID), zap.String("by", actor))
	return out, nil
}

func (u *Usecase) Delete(ctx context.Context, actor, loanID string) error {
	var code string
	err := u.tx.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		isAdmin, err := isAdmin(ctx, r.Users, actor)
		if err != nil {
			return err
		}
		if !l.CanModify(actor, isAdmin) {
			return domain.ErrNotOwner
		}
		code = l.LoanID
		return r.Loans.Delete(ctx, l.ID)
	})
	if err != nil {
		return err
	}
	u.log.Info("loan deleted", zap.String("loan_id", code), zap.String("by", actor))
	return nil
}

func (u *Usecase) SetVisibility(ctx context.Context, loanID string, show bool) (*domain.Loan, error) {
	return u.transition(ctx, loanID, func(l *domain.Loan, now time.Time) {
		l.ShowOnHome = show
	}, "")
}

func (u *Usecase) Approve(ctx context.Context, loanID string) (*domain.Loan, error) {
	return u.transition(ctx, loanID, func(l *domain.Loan, now time.Time) { l.Approve(now) }, domain.StatusApproved)
}

func (u *Usecase) Reject(ctx context.Context, loanID string) (*domain.Loan, error) {
	return u.transition(ctx, loanID, func(l *domain.Loan, now time.Time) { l.Reject(now) }, domain.StatusRejected)
}

// transition loads the locked loan, mutates it and saves. to is recorded in
// metrics when non-empty.
func (u *Usecase) transition(ctx context.Context, loanID string, mutate func(*domain.Loan, time.Time), to domain.Status) (*domain.Loan, error) {
	var out *domain.Loan
	err := u.tx.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		now := u.now()
		mutate(l, now)
		l.UpdatedAt = now
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	if to != "" {
		u.metrics.LoanTransition(string(to))
		u.log.Info("loan status changed", zap.String("loan_id", out.LoanID), zap.String("status", string(to)))
	} else {
		u.log.Info("loan visibility changed", zap.String("loan_id", out.LoanID), zap.Bool("show_on_home", out.ShowOnHome))
	}
	return out, nil
}

// isAdmin resolves the actor's role. Unknown principals are plain users;
// suspended ones may not mutate anything.
func isAdmin(ctx context.Context, users user.Repository, email string) (bool, error) {
	rec, err := users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if rec.IsSuspended {
		return false, user.ErrSuspended
	}
	return rec.Role == user.RoleAdmin, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
