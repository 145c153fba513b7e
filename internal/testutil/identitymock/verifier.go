package identitymock

import (
	"context"

	"loanlink-backend/internal/domain/identity"
)

var _ identity.Verifier = (*Verifier)(nil)

// Verifier is a function-backed identity.Verifier. With VerifyFn unset it
// treats the token itself as the principal email.
type Verifier struct {
	VerifyFn func(ctx context.Context, token string) (*identity.Principal, error)
}

func (m *Verifier) Verify(ctx context.Context, token string) (*identity.Principal, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, token)
	}
	if token == "" {
		return nil, identity.ErrMissingToken
	}
	return &identity.Principal{Subject: token, Email: token, EmailVerified: true}, nil
}
