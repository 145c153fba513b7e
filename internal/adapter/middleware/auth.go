package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"loanlink-backend/internal/domain/apperr"
	"loanlink-backend/internal/domain/identity"
	"loanlink-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

type AuthConfig struct {
	Verifier identity.Verifier
	// CookieName, when set, lets the same bearer token arrive in a cookie
	// for clients that cannot set headers.
	CookieName string
	Timeout    time.Duration
}

func errJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// ok is false when the header is present but malformed.
func bearerToken(h string) (token string, present, ok bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return "", false, false
	}
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true, false
	}
	tok = strings.TrimSpace(tok)
	return tok, true, tok != ""
}

// RequireAuth verifies the caller's bearer token and binds the principal to
// the request. Any failure is 401.
func RequireAuth(cfg AuthConfig) echo.MiddlewareFunc {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, present, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if present && !ok {
				return errJSON(c, http.StatusUnauthorized, "malformed authorization header")
			}
			if !present && cfg.CookieName != "" {
				if ck, err := c.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
					token = ck.Value
				}
			}
			if token == "" {
				return errJSON(c, http.StatusUnauthorized, apperr.Message(identity.ErrMissingToken))
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			p, err := cfg.Verifier.Verify(ctx, token)
			cancel()
			if err != nil || p == nil || p.Email == "" {
				return errJSON(c, http.StatusUnauthorized, apperr.Message(identity.ErrInvalidToken))
			}

			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// Principal returns the verified principal, or nil outside RequireAuth.
func Principal(c echo.Context) *identity.Principal {
	p, _ := c.Get(principalKey).(*identity.Principal)
	return p
}

func PrincipalEmail(c echo.Context) string {
	if p := Principal(c); p != nil {
		return p.Email
	}
	return ""
}

// RequireRole admits principals whose stored role is one of roles. The role
// store is read on every call; nothing is cached. Must run after RequireAuth.
func RequireRole(users user.Repository, roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email := PrincipalEmail(c)
			if email == "" {
				return errJSON(c, http.StatusUnauthorized, apperr.Message(apperr.ErrUnauthenticated))
			}

			rec, err := users.GetByEmail(c.Request().Context(), email)
			if errors.Is(err, user.ErrNotFound) {
				return errJSON(c, http.StatusForbidden, "no role assigned")
			}
			if err != nil {
				return err
			}
			if rec.IsSuspended {
				return errJSON(c, http.StatusForbidden, apperr.Message(user.ErrSuspended))
			}
			for _, r := range roles {
				if rec.Role == r {
					return next(c)
				}
			}
			return errJSON(c, http.StatusForbidden, "insufficient role")
		}
	}
}
