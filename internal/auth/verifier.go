package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates the bearer token failed verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the verified claim set a token yields. Raw keeps the full claim
// map for authority mapping.
type Claims struct {
	Subject string
	Email   string
	Raw     map[string]any
}

// TokenVerifier validates an inbound bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Claims, error)
}

// OIDCVerifier verifies provider-issued tokens through OIDC discovery
// against the pool issuer. The client-id check is skipped because the
// provider's access tokens carry no audience claim.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's keys and builds a verifier.
func NewOIDCVerifier(ctx context.Context, issuer string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Claims, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var raw map[string]any
	if err := token.Claims(&raw); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claimsFromRaw(token.Subject, raw)
}

// HS256Verifier verifies locally minted HS256 tokens with a shared secret.
// Development and test fallback; production verification goes through OIDC.
type HS256Verifier struct {
	secret []byte
	issuer string
}

// NewHS256Verifier builds the shared-secret verifier. Issuer is optional;
// when set, tokens from other issuers are rejected.
func NewHS256Verifier(secret, issuer string) (*HS256Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: shared secret is required")
	}
	return &HS256Verifier{secret: []byte(secret), issuer: issuer}, nil
}

func (v *HS256Verifier) Verify(ctx context.Context, rawToken string) (Claims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if v.issuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil || iss != v.issuer {
			return Claims{}, ErrInvalidToken
		}
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claimsFromRaw(sub, map[string]any(claims))
}

func claimsFromRaw(subject string, raw map[string]any) (Claims, error) {
	if strings.TrimSpace(subject) == "" {
		return Claims{}, ErrInvalidToken
	}
	c := Claims{Subject: subject, Raw: raw}
	for _, key := range []string{"email", "username", "cognito:username"} {
		if s, ok := raw[key].(string); ok && s != "" {
			c.Email = s
			break
		}
	}
	return c, nil
}
