package payment

import (
	"context"
	"time"

	"loanlink-backend/internal/domain/apperr"
)

var (
	ErrNotSucceeded     = apperr.New(apperr.KindValidation, "payment has not succeeded")
	ErrWrongApplication = apperr.New(apperr.KindValidation, "payment belongs to another application")
	ErrInvalidAmount    = apperr.New(apperr.KindValidation, "payment amount must be positive")
	ErrMissingTxID      = apperr.New(apperr.KindValidation, "transaction id is required")
	ErrUnbound          = apperr.New(apperr.KindValidation, "payment is not bound to an application")
	ErrWrongPayer       = apperr.New(apperr.KindValidation, "payment was made by another user")
	ErrUnderpaid        = apperr.New(apperr.KindValidation, "payment amount is below the application fee")
	ErrWrongCurrency    = apperr.New(apperr.KindValidation, "payment currency does not match")
)

type IntentRequest struct {
	// Amount in minor units (cents)
	Amount        int64
	Currency      string
	Email         string
	ApplicationID string
}

type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Record is a provider-confirmed payment.
type Record struct {
	TransactionID string
	Email         string
	Amount        int64
	Currency      string
	ApplicationID string
	ConfirmedAt   time.Time
}

// Provider is the external payment-intent API.
type Provider interface {
	CreateIntent(ctx context.Context, in IntentRequest) (*Intent, error)
	// Confirm fetches the intent and fails with ErrNotSucceeded unless it has settled.
	Confirm(ctx context.Context, transactionID string) (*Record, error)
}
