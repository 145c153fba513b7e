package payment

import (
	"context"
	"strings"
	"time"

	"loanlink-backend/internal/domain/application"
	"loanlink-backend/internal/domain/payment"

	"go.uber.org/zap"
)

type CreateIntentInput struct {
	// Amount in minor units; zero means the configured application fee.
	Amount        int64  `json:"amount" validate:"gte=0"`
	ApplicationID string `json:"applicationId"`
}

type Usecase struct {
	apps     application.Repository
	provider payment.Provider
	log      *zap.Logger
	feeCents int64
	currency string
	timeout  time.Duration
}

func NewUsecase(apps application.Repository, p payment.Provider, log *zap.Logger, feeCents int64, currency string, timeout time.Duration) *Usecase {
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
		provider: p,
		log:      log.Named("payment"),
		feeCents: feeCents,
		currency: strings.ToLower(currency),
		timeout:  timeout,
	}
}

// CreateIntent opens a payment intent for the caller. When an application is
// referenced it must belong to the caller and still be payable.
func (u *Usecase) CreateIntent(ctx context.Context, actor string, in CreateIntentInput) (*payment.Intent, error) {
	amount := in.Amount
	if amount <= 0 {
		amount = u.feeCents
	}
	if amount <= 0 {
		return nil, payment.ErrInvalidAmount
	}

	appRef := strings.TrimSpace(in.ApplicationID)
	if appRef != "" {
		a, err := u.apps.GetByID(ctx, appRef)
		if err != nil {
			return nil, err
		}
		if err := a.CanPay(actor); err != nil {
			return nil, err
		}
		appRef = a.ApplicationID
	}

	cctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	intent, err := u.provider.CreateIntent(cctx, payment.IntentRequest{
		Amount:        amount,
		Currency:      u.currency,
		Email:         actor,
		ApplicationID: appRef,
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("application_id", appRef),
		zap.Int64("amount", amount),
		zap.String("by", actor),
	)
	return intent, nil
}
