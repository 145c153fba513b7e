package paymentmock

import (
	"context"
	"errors"

	"loanlink-backend/internal/domain/payment"
)

var _ payment.Provider = (*Provider)(nil)

var errUnimplemented = errors.New("paymentmock: method not implemented")

type Provider struct {
	CreateIntentFn func(ctx context.Context, in payment.IntentRequest) (*payment.Intent, error)
	ConfirmFn      func(ctx context.Context, transactionID string) (*payment.Record, error)
}

func (m *Provider) CreateIntent(ctx context.Context, in payment.IntentRequest) (*payment.Intent, error) {
	if m.CreateIntentFn != nil {
		return m.CreateIntentFn(ctx, in)
	}
	return nil, errUnimplemented
}

func (m *Provider) Confirm(ctx context.Context, transactionID string) (*payment.Record, error) {
	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, transactionID)
	}
	return nil, errUnimplemented
}
