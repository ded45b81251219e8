package idp

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"

	"usergate.org/internal/errs"
)

// The translator is the only consumer of provider-specific error shapes.
// Each provider error type maps to exactly one normalized kind; anything
// unrecognized falls back to the upstream kind of the call family, wrapping
// the cause for diagnostics.

// translateIdentity normalizes failures of identity mutations
// (register/update/delete/group membership).
func translateIdentity(op string, err error) error {
	if err == nil {
		return nil
	}
	if kind, msg, ok := commonKind(err); ok {
		return errs.Wrap(kind, msg, err)
	}
	return errs.Wrap(errs.UpstreamIdentity, "identity provider request failed: "+op, err)
}

// translateAuth normalizes failures of the authentication flows
// (initiate-auth/challenge-response/sign-out).
func translateAuth(op string, err error) error {
	if err == nil {
		return nil
	}
	if kind, msg, ok := commonKind(err); ok {
		return errs.Wrap(kind, msg, err)
	}
	return errs.Wrap(errs.UpstreamAuth, "authentication request failed: "+op, err)
}

func commonKind(err error) (errs.Kind, string, bool) {
	var (
		usernameExists  *types.UsernameExistsException
		aliasExists     *types.AliasExistsException
		invalidParam    *types.InvalidParameterException
		invalidPassword *types.InvalidPasswordException
		notAuthorized   *types.NotAuthorizedException
		userNotFound    *types.UserNotFoundException
		codeMismatch    *types.CodeMismatchException
		expiredCode     *types.ExpiredCodeException
	)
	switch {
	case errors.As(err, &usernameExists):
		return errs.DuplicateIdentity, "identity already registered for this email", true
	case errors.As(err, &aliasExists):
		return errs.DuplicateAttribute, "email or phone already in use by another identity", true
	case errors.As(err, &invalidPassword):
		return errs.WeakPassword, "password does not meet the provider policy", true
	case errors.As(err, &invalidParam):
		return errs.InvalidAttributes, "identity attributes rejected by the provider", true
	case errors.As(err, &notAuthorized):
		return errs.InvalidCredentials, "invalid credentials", true
	case errors.As(err, &userNotFound):
		return errs.NotFound, "user not found", true
	case errors.As(err, &codeMismatch), errors.As(err, &expiredCode):
		return errs.InvalidCredentials, "challenge response rejected", true
	}

	// SDK errors that arrive untyped still expose a code.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UsernameExistsException":
			return errs.DuplicateIdentity, "identity already registered for this email", true
		case "AliasExistsException":
			return errs.DuplicateAttribute, "email or phone already in use by another identity", true
		case "InvalidPasswordException":
			return errs.WeakPassword, "password does not meet the provider policy", true
		case "InvalidParameterException":
			return errs.InvalidAttributes, "identity attributes rejected by the provider", true
		case "NotAuthorizedException":
			return errs.InvalidCredentials, "invalid credentials", true
		case "UserNotFoundException":
			return errs.NotFound, "user not found", true
		}
	}

	return "", "", false
}
