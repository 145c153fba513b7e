package identity

import (
	"context"

	"loanlink-backend/internal/domain/apperr"
)

var (
	ErrMissingToken = apperr.New(apperr.KindUnauthenticated, "missing bearer token")
	ErrInvalidToken = apperr.New(apperr.KindUnauthenticated, "invalid or expired token")
)

type Principal struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// Verifier validates a bearer credential with the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}
