package idp

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"usergate.org/internal/errs"
)

func TestTranslateTypedExceptions(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want errs.Kind
	}{
		{"username exists", &types.UsernameExistsException{}, errs.DuplicateIdentity},
		{"alias exists", &types.AliasExistsException{}, errs.DuplicateAttribute},
		{"invalid password", &types.InvalidPasswordException{}, errs.WeakPassword},
		{"invalid parameter", &types.InvalidParameterException{}, errs.InvalidAttributes},
		{"not authorized", &types.NotAuthorizedException{}, errs.InvalidCredentials},
		{"user not found", &types.UserNotFoundException{}, errs.NotFound},
		{"code mismatch", &types.CodeMismatchException{}, errs.InvalidCredentials},
		{"expired code", &types.ExpiredCodeException{}, errs.InvalidCredentials},
	}
	for _, tc := range cases {
		if got := errs.KindOf(translateIdentity("op", tc.err)); got != tc.want {
			t.Errorf("%s: identity got %q, want %q", tc.name, got, tc.want)
		}
		if got := errs.KindOf(translateAuth("op", tc.err)); got != tc.want {
			t.Errorf("%s: auth got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestTranslateFallsBackToAPIErrorCode(t *testing.T) {
	err := &smithy.GenericAPIError{Code: "UserNotFoundException", Message: "nope"}
	if got := errs.KindOf(translateIdentity("delete", err)); got != errs.NotFound {
		t.Fatalf("got %q, want %q", got, errs.NotFound)
	}
}

func TestTranslateUnknownErrorsKeepCallFamily(t *testing.T) {
	cause := errors.New("connection reset")

	err := translateIdentity("register", cause)
	if got := errs.KindOf(err); got != errs.UpstreamIdentity {
		t.Fatalf("identity: got %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("identity: cause not preserved")
	}

	err = translateAuth("initiate auth", cause)
	if got := errs.KindOf(err); got != errs.UpstreamAuth {
		t.Fatalf("auth: got %q", got)
	}
}

func TestTranslateNil(t *testing.T) {
	if translateIdentity("op", nil) != nil || translateAuth("op", nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
