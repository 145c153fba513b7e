package stripepay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"loanlink-backend/internal/domain/apperr"
	"loanlink-backend/internal/domain/payment"
)

const metaApplicationID = "applicationId"

var ErrUnknownTransaction = apperr.New(apperr.KindValidation, "unknown transaction")

type Options struct {
	SecretKey string
	// APIURL overrides the Stripe endpoint, used by tests and local mocks.
	APIURL  string
	Timeout time.Duration
}

// Provider implements payment.Provider on Stripe PaymentIntents.
type Provider struct {
	api *client.API
}

var _ payment.Provider = (*Provider)(nil)

func New(opts Options) *Provider {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if opts.APIURL != "" {
		cfg.URL = stripe.String(opts.APIURL)
	}
	b := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return &Provider{
		api: client.New(opts.SecretKey, &stripe.Backends{API: b, Connect: b, Uploads: b}),
	}
}

func (p *Provider) CreateIntent(ctx context.Context, in payment.IntentRequest) (*payment.Intent, error) {
	if in.Amount <= 0 {
		return nil, payment.ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if in.Email != "" {
		params.ReceiptEmail = stripe.String(in.Email)
		params.AddMetadata("email", in.Email)
	}
	if in.ApplicationID != "" {
		params.AddMetadata(metaApplicationID, in.ApplicationID)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classify("create payment intent", err)
	}
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

func (p *Provider) Confirm(ctx context.Context, transactionID string) (*payment.Record, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, payment.ErrMissingTxID
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(transactionID, params)
	if err != nil {
		return nil, classify("fetch payment intent", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w (status %s)", payment.ErrNotSucceeded, pi.Status)
	}

	email := pi.ReceiptEmail
	if email == "" {
		email = pi.Metadata["email"]
	}
	confirmed := time.Now().UTC()
	if pi.Created > 0 {
		confirmed = time.Unix(pi.Created, 0).UTC()
	}
	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}
	return &payment.Record{
		TransactionID: pi.ID,
		Email:         email,
		Amount:        amount,
		Currency:      string(pi.Currency),
		ApplicationID: pi.Metadata[metaApplicationID],
		ConfirmedAt:   confirmed,
	}, nil
}

func classify(op string, err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		switch {
		case se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing:
			return fmt.Errorf("%s: %w", op, ErrUnknownTransaction)
		case se.Type == stripe.ErrorTypeInvalidRequest:
			return apperr.Wrap(apperr.KindValidation, se.Msg, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
