// Package idp wraps the external identity provider. The provider is the
// system of record for credentials, login and group membership; this package
// exposes the narrow capability surface the orchestrators consume and
// translates provider failures into the normalized error taxonomy.
package idp

import "context"

// Tokens is the credential set issued by a successful login or challenge
// response. Never persisted; handed back to the caller as-is.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int32  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Challenge describes a provider-mandated extra step that must complete
// before tokens are issued. Session is opaque, held by the provider and
// redeemable at most once; the caller round-trips it.
type Challenge struct {
	Kind    string `json:"challenge"`
	Session string `json:"session"`
}

// ChallengeNewPasswordRequired is the forced-password-change challenge kind.
const ChallengeNewPasswordRequired = "NEW_PASSWORD_REQUIRED"

// AuthResult is the tagged outcome of an initial authentication attempt:
// exactly one of Tokens or Challenge is set. A pending challenge is an
// expected branch of the login protocol, not a failure.
type AuthResult struct {
	Tokens    *Tokens
	Challenge *Challenge
}

// Provider is the capability surface of the external identity provider.
// Usernames are email addresses; external ids are provider-issued subjects.
// Every method returns errors already normalized via the translator in this
// package.
type Provider interface {
	// Register creates the identity and returns the provider-issued
	// external id (subject). When creation succeeded but a follow-up
	// provider step failed, the external id is returned alongside the
	// error so callers can surface the orphaned identity.
	Register(ctx context.Context, name, lastName, email, phone string) (string, error)
	// UpdateAttributes replaces profile attributes on the identity.
	UpdateAttributes(ctx context.Context, username, name, lastName, email, phone string) error
	// Delete removes the identity.
	Delete(ctx context.Context, username string) error
	// AddToGroup puts the identity into a provider-side group.
	AddToGroup(ctx context.Context, username, group string) error
	// InitiateAuth runs the password authentication flow. The result
	// carries either tokens or a pending challenge.
	InitiateAuth(ctx context.Context, email, password string) (*AuthResult, error)
	// RespondToChallenge redeems a challenge session with a new password.
	RespondToChallenge(ctx context.Context, email, newPassword, session string) (*Tokens, error)
	// GlobalSignOut revokes the identity's refresh tokens everywhere the
	// provider can reach. Best effort: already-issued access tokens keep
	// their remaining validity.
	GlobalSignOut(ctx context.Context, username string) error
}
