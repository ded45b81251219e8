// Package auth drives the login and password-change-challenge flows against
// the identity provider and maps verified token claims to authorities.
package auth

import (
	"context"
	"strings"

	"usergate.org/internal/errs"
	"usergate.org/internal/idp"
)

// Service is the authentication orchestrator. It owns no state: the
// challenge state machine lives at the provider, represented locally only
// by the opaque session the caller round-trips.
type Service struct {
	provider idp.Provider
}

// NewService constructs the orchestrator.
func NewService(provider idp.Provider) *Service {
	return &Service{provider: provider}
}

// LoginResult is the tagged outcome of Login: Tokens when the credentials
// completed authentication, Challenge when the provider demands an extra
// step first. Exactly one is set.
type LoginResult struct {
	Tokens    *idp.Tokens
	Challenge *idp.Challenge
}

// Login runs the password authentication flow. A pending challenge is a
// success result, not an error; rejected credentials normalize to
// InvalidCredentials, an unknown user to NotFound, anything else upstream
// to UpstreamAuth.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, errs.New(errs.InvalidCredentials, "invalid credentials")
	}

	res, err := s.provider.InitiateAuth(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Tokens: res.Tokens, Challenge: res.Challenge}, nil
}

// RespondToNewPasswordChallenge redeems the provider-held session with the
// new password. Sessions are single-use: the provider invalidates them after
// the first redemption, so reuse surfaces as InvalidCredentials rather than
// silently re-authenticating.
func (s *Service) RespondToNewPasswordChallenge(ctx context.Context, email, newPassword, session string) (*idp.Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || newPassword == "" || session == "" {
		return nil, errs.New(errs.InvalidCredentials, "invalid credentials")
	}
	return s.provider.RespondToChallenge(ctx, email, newPassword, session)
}

// Logout asks the provider to revoke the subject's sessions globally. Best
// effort: access tokens already issued keep whatever validity the provider's
// sign-out leaves them.
func (s *Service) Logout(ctx context.Context, subject string) error {
	if strings.TrimSpace(subject) == "" {
		return errs.New(errs.NotFound, "user not found")
	}
	return s.provider.GlobalSignOut(ctx, subject)
}
