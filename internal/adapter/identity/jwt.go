package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"loanlink-backend/internal/domain/identity"
	"loanlink-backend/internal/domain/user"
)

const (
	defaultJWKSCacheTTL = 10 * time.Minute
	// unknown kids cannot force a JWKS fetch more often than this
	minJWKSRefreshInterval = 30 * time.Second
)

var errKeyNotFound = errors.New("signing key not found")

type Options struct {
	Issuer   string
	Audience string
	// PublicKeyPEM wins over JWKSURL when both are set.
	PublicKeyPEM string
	JWKSURL      string
	Timeout      time.Duration
	CacheTTL     time.Duration
	HTTPClient   *http.Client
}

// JWTVerifier checks RS256 tokens against a static PEM key or a JWKS endpoint.
type JWTVerifier struct {
	issuer   string
	audience string
	static   *rsa.PublicKey
	jwksURL  string
	client   *http.Client
	cacheTTL time.Duration
	now      func() time.Time

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

type claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func NewJWTVerifier(opts Options) (*JWTVerifier, error) {
	v := &JWTVerifier{
		issuer:   opts.Issuer,
		audience: opts.Audience,
		jwksURL:  strings.TrimSpace(opts.JWKSURL),
		client:   opts.HTTPClient,
		cacheTTL: opts.CacheTTL,
		now:      time.Now,
	}
	if v.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		v.client = &http.Client{Timeout: timeout}
	}
	if v.cacheTTL <= 0 {
		v.cacheTTL = defaultJWKSCacheTTL
	}
	if pem := strings.TrimSpace(opts.PublicKeyPEM); pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("parse auth public key: %w", err)
		}
		v.static = key
	}
	if v.static == nil && v.jwksURL == "" {
		return nil, errors.New("no verification key configured")
	}
	return v, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*identity.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, identity.ErrMissingToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	c := &claims{}
	tok, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if v.static != nil {
			return v.static, nil
		}
		return v.keyFromJWKS(ctx, t)
	}, parserOpts...)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	if strings.TrimSpace(c.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject claim", identity.ErrInvalidToken)
	}
	email := user.NormalizeEmail(c.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email claim", identity.ErrInvalidToken)
	}

	return &identity.Principal{
		Subject:       c.Subject,
		Email:         email,
		EmailVerified: c.EmailVerified,
	}, nil
}

func (v *JWTVerifier) keyFromJWKS(ctx context.Context, token *jwt.Token) (*rsa.PublicKey, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("missing kid")
	}

	key, fresh := v.cached(kid)
	if key != nil && fresh {
		return key, nil
	}
	// refetch on a miss or expiry in case the provider rotated keys
	if !v.claimRefresh() {
		if key != nil {
			return key, nil
		}
		return nil, errKeyNotFound
	}
	if err := v.refresh(ctx); err != nil {
		// keep serving the last known key while the endpoint is down
		if key != nil {
			return key, nil
		}
		return nil, err
	}
	if key, _ := v.cached(kid); key != nil {
		return key, nil
	}
	return nil, errKeyNotFound
}

// claimRefresh reports whether a JWKS fetch may start now and records the attempt.
func (v *JWTVerifier) claimRefresh() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	if !v.lastAttempt.IsZero() && now.Sub(v.lastAttempt) < minJWKSRefreshInterval {
		return false
	}
	v.lastAttempt = now
	return true
}

func (v *JWTVerifier) cached(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys[kid], v.now().Sub(v.fetchedAt) < v.cacheTTL
}

func (v *JWTVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("jwks fetch failed: %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := buildRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = v.now()
	v.mu.Unlock()
	return nil
}

func buildRSAPublicKey(nB64, eB64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nBytes)
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}
