package application

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "loanlink-backend/internal/domain/application"
	"loanlink-backend/internal/domain/loan"
	"loanlink-backend/internal/domain/payment"
	"loanlink-backend/internal/domain/uow"
	"loanlink-backend/internal/domain/user"
	"loanlink-backend/internal/infrastructure/metrics"
	"loanlink-backend/pkg/id"

	"go.uber.org/zap"
)

type Usecase struct {
	apps     domain.Repository
	loans    loan.Repository
	users    user.Repository
	tx       uow.UnitOfWork
	payments payment.Provider
	feeCents int64
	currency string
	log      *zap.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
	now      func() time.Time
}

func NewUsecase(
	apps domain.Repository,
	loans loan.Repository,
	users user.Repository,
	tx uow.UnitOfWork,
	payments payment.Provider,
	feeCents int64,
	currency string,
	log *zap.Logger,
	m *metrics.Metrics,
	timeout time.Duration,
) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if currency == "" {
		currency = "usd"
	}
	return &Usecase{
		apps:     apps,
		loans:    loans,
		users:    users,
		tx:       tx,
		payments: payments,
		feeCents: feeCents,
		currency: strings.ToLower(strings.TrimSpace(currency)),
		log:      log.Named("application"),
		metrics:  m,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) Create(ctx context.Context, actor string, in CreateApplicationInput) (*domain.Application, error) {
	if !in.Amount.IsPositive() || in.MonthlyIncome.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	l, err := u.loans.GetByID(ctx, in.LoanID)
	if errors.Is(err, loan.ErrNotFound) {
		return nil, domain.ErrUnknownLoan
	}
	if err != nil {
		return nil, err
	}

	now := u.now()
	a := &domain.Application{
		ID:            id.NewID32(),
		ApplicationID: id.NewDisplayID(id.ApplicationPrefix),
		LoanID:        l.ID,
		LoanTitle:     l.Title,
		UserEmail:     actor,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		ContactNumber: in.ContactNumber,
		NationalID:    in.NationalID,
		IncomeSource:  in.IncomeSource,
		MonthlyIncome: in.MonthlyIncome,
		Amount:        in.Amount,
		Reason:        in.Reason,
		Address:       in.Address,
		ExtraNotes:    in.ExtraNotes,
		Status:        domain.StatusPending,
		FeeStatus:     domain.FeeUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.apps.Create(ctx, a); err != nil {
		return nil, err
	}

	u.metrics.ApplicationTransition(string(a.Status))
	u.log.Info("application submitted",
		zap.String("application_id", a.ApplicationID),
		zap.String("loan_id", l.LoanID),
		zap.String("by", actor),
	)
	return a, nil
}

// List returns every application, optionally narrowed to one status.
func (u *Usecase) List(ctx context.Context, status string) ([]domain.Application, error) {
	f := domain.Filter{}
	if status != "" {
		s := domain.Status(status)
		if !s.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		f.Status = s
	}
	return u.apps.List(ctx, f)
}

func (u *Usecase) ListMine(ctx context.Context, actor string) ([]domain.Application, error) {
	return u.apps.List(ctx, domain.Filter{UserEmail: actor})
}

// Get is open to the applicant and to active managers and admins.
func (u *Usecase) Get(ctx context.Context, actor, applicationID string) (*domain.Application, error) {
	a, err := u.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if a.OwnedBy(actor) {
		return a, nil
	}

	rec, err := u.users.GetByEmail(ctx, actor)
	if errors.Is(err, user.ErrNotFound) {
		return nil, domain.ErrNotOwner
	}
	if err != nil {
		return nil, err
	}
	if rec.IsSuspended || (rec.Role != user.RoleManager && rec.Role != user.RoleAdmin) {
		return nil, domain.ErrNotOwner
	}
	return a, nil
}

func (u *Usecase) Approve(ctx context.Context, actor, applicationID string) (*domain.Application, error) {
	return u.transition(ctx, actor, applicationID, func(a *domain.Application, now time.Time) error {
		return a.Approve(now)
	})
}

func (u *Usecase) Reject(ctx context.Context, actor, applicationID string) (*domain.Application, error) {
	return u.transition(ctx, actor, applicationID, func(a *domain.Application, now time.Time) error {
		return a.Reject(now)
	})
}

// Cancel checks existence, then ownership, then that the application is pending.
func (u *Usecase) Cancel(ctx context.Context, actor, applicationID string) (*domain.Application, error) {
	return u.transition(ctx, actor, applicationID, func(a *domain.Application, now time.Time) error {
		return a.Cancel(actor, now)
	})
}

func (u *Usecase) transition(ctx context.Context, actor, applicationID string, apply func(*domain.Application, time.Time) error) (*domain.Application, error) {
	var out *domain.Application
	err := u.tx.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *domain.Application) error {
		now := u.now()
		if err := apply(a, now); err != nil {
			return err
		}
		a.UpdatedAt = now
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.metrics.ApplicationTransition(string(out.Status))
	u.log.Info("application status changed",
		zap.String("application_id", out.ApplicationID),
		zap.String("status", string(out.Status)),
		zap.String("by", actor),
	)
	return out, nil
}

// PayFee confirms the payment with the provider and records it. Paying an
// already-paid application returns it unchanged without contacting the provider.
func (u *Usecase) PayFee(ctx context.Context, actor, applicationID string, in PayFeeInput) (*domain.Application, error) {
	a, err := u.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	switch err := a.CanPay(actor); {
	case errors.Is(err, domain.ErrAlreadyPaid):
		return a, nil
	case err != nil:
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, u.timeout)
	rec, err := u.payments.Confirm(cctx, in.TransactionID)
	cancel()
	if err != nil {
		return nil, err
	}
	if err := u.checkRecord(a, rec); err != nil {
		u.log.Warn("payment rejected",
			zap.String("application_id", a.ApplicationID),
			zap.String("transaction_id", rec.TransactionID),
			zap.Error(err),
		)
		return nil, err
	}

	var out *domain.Application
	paidNow := false
	err = u.tx.WithinApplicationTx(ctx, a.ID, func(r uow.Repos, locked *domain.Application) error {
		out = locked
		switch err := locked.CanPay(actor); {
		case errors.Is(err, domain.ErrAlreadyPaid):
			return nil
		case err != nil:
			return err
		}

		now := u.now()
		confirmed := rec.ConfirmedAt
		if confirmed.IsZero() {
			confirmed = now
		}
		email := rec.Email
		if email == "" {
			email = actor
		}
		locked.MarkPaid(domain.Payment{
			TransactionID: domain.TransactionID(rec.TransactionID),
			Email:         email,
			Amount:        rec.Amount,
			Currency:      rec.Currency,
			ConfirmedAt:   &confirmed,
		}, now)
		locked.UpdatedAt = now
		paidNow = true
		return r.Applications.Save(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	if paidNow {
		u.metrics.FeePaid(rec.Amount)
		u.log.Info("application fee paid",
			zap.String("application_id", out.ApplicationID),
			zap.String("transaction_id", rec.TransactionID),
			zap.Int64("amount", rec.Amount),
		)
	}
	return out, nil
}

// checkRecord ties a confirmed payment to this application, its owner and the
// configured fee.
func (u *Usecase) checkRecord(a *domain.Application, rec *payment.Record) error {
	switch rec.ApplicationID {
	case "":
		return payment.ErrUnbound
	case a.ApplicationID, a.ID:
	default:
		return payment.ErrWrongApplication
	}
	if rec.Email != "" && user.NormalizeEmail(rec.Email) != a.UserEmail {
		return payment.ErrWrongPayer
	}
	if rec.Amount < u.feeCents {
		return payment.ErrUnderpaid
	}
	if !strings.EqualFold(rec.Currency, u.currency) {
		return payment.ErrWrongCurrency
	}
	return nil
}
