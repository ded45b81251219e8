package idp

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"usergate.org/internal/errs"
)

// fakeCognito scripts SDK responses per call.
type fakeCognito struct {
	createOut *cip.AdminCreateUserOutput
	createErr error
	verifyErr error
	authOut   *cip.InitiateAuthOutput
	authErr   error
	chalOut   *cip.RespondToAuthChallengeOutput
	chalErr   error

	createIn *cip.AdminCreateUserInput
	verifyIn *cip.AdminUpdateUserAttributesInput
	groupIn  *cip.AdminAddUserToGroupInput
	deleteIn *cip.AdminDeleteUserInput
}

func (f *fakeCognito) AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, _ ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error) {
	f.createIn = in
	return f.createOut, f.createErr
}

func (f *fakeCognito) AdminUpdateUserAttributes(ctx context.Context, in *cip.AdminUpdateUserAttributesInput, _ ...func(*cip.Options)) (*cip.AdminUpdateUserAttributesOutput, error) {
	f.verifyIn = in
	return &cip.AdminUpdateUserAttributesOutput{}, f.verifyErr
}

func (f *fakeCognito) AdminDeleteUser(ctx context.Context, in *cip.AdminDeleteUserInput, _ ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error) {
	f.deleteIn = in
	return &cip.AdminDeleteUserOutput{}, nil
}

func (f *fakeCognito) AdminAddUserToGroup(ctx context.Context, in *cip.AdminAddUserToGroupInput, _ ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error) {
	f.groupIn = in
	return &cip.AdminAddUserToGroupOutput{}, nil
}

func (f *fakeCognito) InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	return f.authOut, f.authErr
}

func (f *fakeCognito) RespondToAuthChallenge(ctx context.Context, in *cip.RespondToAuthChallengeInput, _ ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error) {
	return f.chalOut, f.chalErr
}

func (f *fakeCognito) AdminUserGlobalSignOut(ctx context.Context, in *cip.AdminUserGlobalSignOutInput, _ ...func(*cip.Options)) (*cip.AdminUserGlobalSignOutOutput, error) {
	return &cip.AdminUserGlobalSignOutOutput{}, nil
}

func createdUser(sub string) *cip.AdminCreateUserOutput {
	return &cip.AdminCreateUserOutput{User: &types.UserType{
		Attributes: []types.AttributeType{
			{Name: aws.String("sub"), Value: aws.String(sub)},
		},
	}}
}

func TestRegisterReturnsSubjectAndMarksVerified(t *testing.T) {
	f := &fakeCognito{createOut: createdUser("sub-9")}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	sub, err := p.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "+77001234567")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sub != "sub-9" {
		t.Fatalf("subject: %q", sub)
	}
	if aws.ToString(f.createIn.Username) != "ada@example.com" {
		t.Fatalf("username: %v", f.createIn.Username)
	}
	if got := attrValue(f.createIn.UserAttributes, "phone_number"); got != "+77001234567" {
		t.Fatalf("phone attribute: %q", got)
	}
	if f.verifyIn == nil {
		t.Fatal("verification attributes were not written")
	}
	if got := attrValue(f.verifyIn.UserAttributes, "email_verified"); got != "true" {
		t.Fatalf("email_verified: %q", got)
	}
	if got := attrValue(f.verifyIn.UserAttributes, "phone_number_verified"); got != "true" {
		t.Fatalf("phone_number_verified: %q", got)
	}
}

func TestRegisterSkipsPhoneWhenEmpty(t *testing.T) {
	f := &fakeCognito{createOut: createdUser("sub-9")}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	if _, err := p.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := attrValue(f.createIn.UserAttributes, "phone_number"); got != "" {
		t.Fatalf("unexpected phone attribute: %q", got)
	}
	if got := attrValue(f.verifyIn.UserAttributes, "phone_number_verified"); got != "" {
		t.Fatalf("unexpected phone verification: %q", got)
	}
}

func TestRegisterMissingSubjectFailsLoudly(t *testing.T) {
	f := &fakeCognito{createOut: &cip.AdminCreateUserOutput{User: &types.UserType{}}}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	sub, err := p.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "")
	if sub != "" {
		t.Fatalf("subject should be empty, got %q", sub)
	}
	if !errs.IsKind(err, errs.UpstreamIdentity) {
		t.Fatalf("want upstream identity error, got %v", err)
	}
}

func TestRegisterVerifyFailureStillReturnsSubject(t *testing.T) {
	f := &fakeCognito{
		createOut: createdUser("sub-9"),
		verifyErr: &types.InternalErrorException{},
	}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	sub, err := p.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "")
	if err == nil {
		t.Fatal("expected error from verification step")
	}
	if sub != "sub-9" {
		t.Fatalf("subject must survive the half-failure, got %q", sub)
	}
}

func TestRegisterDuplicateTranslates(t *testing.T) {
	f := &fakeCognito{createErr: &types.UsernameExistsException{}}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	_, err := p.Register(context.Background(), "Ada", "Lovelace", "ada@example.com", "")
	if !errs.IsKind(err, errs.DuplicateIdentity) {
		t.Fatalf("want duplicate identity, got %v", err)
	}
}

func TestInitiateAuthTokens(t *testing.T) {
	f := &fakeCognito{authOut: &cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken: aws.String("at"),
			IdToken:     aws.String("it"),
			ExpiresIn:   3600,
			TokenType:   aws.String("Bearer"),
		},
	}}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	res, err := p.InitiateAuth(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("initiate auth: %v", err)
	}
	if res.Challenge != nil || res.Tokens == nil || res.Tokens.AccessToken != "at" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestInitiateAuthChallenge(t *testing.T) {
	f := &fakeCognito{authOut: &cip.InitiateAuthOutput{
		ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
		Session:       aws.String("S1"),
	}}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	res, err := p.InitiateAuth(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("initiate auth: %v", err)
	}
	if res.Tokens != nil || res.Challenge == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Challenge.Kind != ChallengeNewPasswordRequired || res.Challenge.Session != "S1" {
		t.Fatalf("unexpected challenge: %+v", res.Challenge)
	}
}

func TestInitiateAuthEmptyResultFails(t *testing.T) {
	f := &fakeCognito{authOut: &cip.InitiateAuthOutput{}}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	if _, err := p.InitiateAuth(context.Background(), "ada@example.com", "pw"); !errs.IsKind(err, errs.UpstreamAuth) {
		t.Fatalf("want upstream auth error, got %v", err)
	}
}

func TestRespondToChallengeIssuesTokens(t *testing.T) {
	f := &fakeCognito{chalOut: &cip.RespondToAuthChallengeOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken: aws.String("at2"),
			TokenType:   aws.String("Bearer"),
		},
	}}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	tokens, err := p.RespondToChallenge(context.Background(), "ada@example.com", "NewPw1!", "S1")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if tokens.AccessToken != "at2" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestDeleteAddressedByUsername(t *testing.T) {
	f := &fakeCognito{}
	p := NewCognitoProviderWithClient(f, "pool-1", "client-1")

	if err := p.Delete(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if aws.ToString(f.deleteIn.Username) != "ada@example.com" {
		t.Fatalf("delete username: %v", f.deleteIn.Username)
	}
	if aws.ToString(f.deleteIn.UserPoolId) != "pool-1" {
		t.Fatalf("delete pool: %v", f.deleteIn.UserPoolId)
	}
}

func attrValue(attrs []types.AttributeType, name string) string {
	for _, a := range attrs {
		if aws.ToString(a.Name) == name {
			return aws.ToString(a.Value)
		}
	}
	return ""
}
