package auth

import (
	"context"
	"testing"

	"usergate.org/internal/errs"
	"usergate.org/internal/idp"
)

type fakeProvider struct {
	authResult *idp.AuthResult
	authErr    error

	challengeTokens *idp.Tokens
	challengeErr    error

	signedOut []string

	lastEmail    string
	lastPassword string
	lastSession  string
}

func (f *fakeProvider) Register(ctx context.Context, name, lastName, email, phone string) (string, error) {
	return "", nil
}

func (f *fakeProvider) UpdateAttributes(ctx context.Context, username, name, lastName, email, phone string) error {
	return nil
}

func (f *fakeProvider) Delete(ctx context.Context, username string) error { return nil }

func (f *fakeProvider) AddToGroup(ctx context.Context, username, group string) error { return nil }

func (f *fakeProvider) InitiateAuth(ctx context.Context, email, password string) (*idp.AuthResult, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authResult, nil
}

func (f *fakeProvider) RespondToChallenge(ctx context.Context, email, newPassword, session string) (*idp.Tokens, error) {
	f.lastEmail, f.lastSession = email, session
	if f.challengeErr != nil {
		return nil, f.challengeErr
	}
	return f.challengeTokens, nil
}

func (f *fakeProvider) GlobalSignOut(ctx context.Context, username string) error {
	f.signedOut = append(f.signedOut, username)
	return nil
}

func TestLoginReturnsTokens(t *testing.T) {
	p := &fakeProvider{authResult: &idp.AuthResult{
		Tokens: &idp.Tokens{AccessToken: "at", IDToken: "it", RefreshToken: "rt", ExpiresIn: 3600, TokenType: "Bearer"},
	}}
	s := NewService(p)

	res, err := s.Login(context.Background(), "Ada@Example.COM", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Tokens == nil || res.Tokens.AccessToken != "at" {
		t.Fatalf("unexpected tokens: %+v", res.Tokens)
	}
	if res.Challenge != nil {
		t.Fatalf("unexpected challenge: %+v", res.Challenge)
	}
	if p.lastEmail != "ada@example.com" {
		t.Fatalf("email not normalized: %q", p.lastEmail)
	}
}

func TestLoginSurfacesChallenge(t *testing.T) {
	p := &fakeProvider{authResult: &idp.AuthResult{
		Challenge: &idp.Challenge{Kind: idp.ChallengeNewPasswordRequired, Session: "S1"},
	}}
	s := NewService(p)

	res, err := s.Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Tokens != nil {
		t.Fatalf("challenge login must not carry tokens: %+v", res.Tokens)
	}
	if res.Challenge == nil || res.Challenge.Kind != idp.ChallengeNewPasswordRequired || res.Challenge.Session != "S1" {
		t.Fatalf("unexpected challenge: %+v", res.Challenge)
	}
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	s := NewService(&fakeProvider{})
	if _, err := s.Login(context.Background(), "", "pw"); !errs.IsKind(err, errs.InvalidCredentials) {
		t.Fatalf("want invalid credentials, got %v", err)
	}
	if _, err := s.Login(context.Background(), "ada@example.com", ""); !errs.IsKind(err, errs.InvalidCredentials) {
		t.Fatalf("want invalid credentials, got %v", err)
	}
}

func TestLoginPropagatesProviderError(t *testing.T) {
	p := &fakeProvider{authErr: errs.New(errs.InvalidCredentials, "bad password")}
	s := NewService(p)
	if _, err := s.Login(context.Background(), "ada@example.com", "nope"); !errs.IsKind(err, errs.InvalidCredentials) {
		t.Fatalf("want invalid credentials, got %v", err)
	}
}

func TestRespondToChallengeCompletesLogin(t *testing.T) {
	p := &fakeProvider{challengeTokens: &idp.Tokens{AccessToken: "at2", TokenType: "Bearer"}}
	s := NewService(p)

	tokens, err := s.RespondToNewPasswordChallenge(context.Background(), "Ada@Example.com", "NewPw1!", "S1")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if tokens == nil || tokens.AccessToken != "at2" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
	if p.lastSession != "S1" || p.lastEmail != "ada@example.com" {
		t.Fatalf("provider called with %q / %q", p.lastEmail, p.lastSession)
	}
}

func TestRespondToChallengeRejectsConsumedSession(t *testing.T) {
	p := &fakeProvider{challengeErr: errs.New(errs.InvalidCredentials, "session expired")}
	s := NewService(p)
	if _, err := s.RespondToNewPasswordChallenge(context.Background(), "ada@example.com", "NewPw1!", "S1"); !errs.IsKind(err, errs.InvalidCredentials) {
		t.Fatalf("want invalid credentials, got %v", err)
	}
}

func TestRespondToChallengeRequiresSession(t *testing.T) {
	s := NewService(&fakeProvider{})
	if _, err := s.RespondToNewPasswordChallenge(context.Background(), "ada@example.com", "NewPw1!", ""); !errs.IsKind(err, errs.InvalidCredentials) {
		t.Fatalf("want invalid credentials, got %v", err)
	}
}

func TestLogoutSignsOutSubject(t *testing.T) {
	p := &fakeProvider{}
	s := NewService(p)
	if err := s.Logout(context.Background(), "sub-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(p.signedOut) != 1 || p.signedOut[0] != "sub-1" {
		t.Fatalf("sign-out calls: %v", p.signedOut)
	}
	if err := s.Logout(context.Background(), " "); !errs.IsKind(err, errs.NotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
