package idp

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"usergate.org/internal/errs"
	"usergate.org/internal/obs"
)

// cognitoAPI is the slice of the Cognito SDK client the provider uses.
// Kept narrow so tests can fake it.
type cognitoAPI interface {
	AdminCreateUser(ctx context.Context, in *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminUpdateUserAttributes(ctx context.Context, in *cip.AdminUpdateUserAttributesInput, optFns ...func(*cip.Options)) (*cip.AdminUpdateUserAttributesOutput, error)
	AdminDeleteUser(ctx context.Context, in *cip.AdminDeleteUserInput, optFns ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error)
	AdminAddUserToGroup(ctx context.Context, in *cip.AdminAddUserToGroupInput, optFns ...func(*cip.Options)) (*cip.AdminAddUserToGroupOutput, error)
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, in *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	AdminUserGlobalSignOut(ctx context.Context, in *cip.AdminUserGlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.AdminUserGlobalSignOutOutput, error)
}

// CognitoProvider implements Provider on an AWS Cognito user pool using the
// admin API. Usernames are email addresses; the pool issues the stable
// subject returned as external id.
type CognitoProvider struct {
	client     cognitoAPI
	userPoolID string
	clientID   string
}

var _ Provider = (*CognitoProvider)(nil)

// NewCognitoProvider loads the default AWS configuration for the region and
// builds a provider bound to one user pool and app client.
func NewCognitoProvider(ctx context.Context, region, userPoolID, clientID string) (*CognitoProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &CognitoProvider{
		client:     cip.NewFromConfig(cfg),
		userPoolID: userPoolID,
		clientID:   clientID,
	}, nil
}

// NewCognitoProviderWithClient injects a prebuilt client. Used by tests.
func NewCognitoProviderWithClient(client cognitoAPI, userPoolID, clientID string) *CognitoProvider {
	return &CognitoProvider{client: client, userPoolID: userPoolID, clientID: clientID}
}

func (p *CognitoProvider) Register(ctx context.Context, name, lastName, email, phone string) (string, error) {
	attrs := []types.AttributeType{
		{Name: aws.String("name"), Value: aws.String(name)},
		{Name: aws.String("family_name"), Value: aws.String(lastName)},
		{Name: aws.String("email"), Value: aws.String(email)},
	}
	if strings.TrimSpace(phone) != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String("phone_number"), Value: aws.String(phone)})
	}

	out, err := p.client.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId:             aws.String(p.userPoolID),
		Username:               aws.String(email),
		DesiredDeliveryMediums: []types.DeliveryMediumType{types.DeliveryMediumTypeEmail},
		UserAttributes:         attrs,
	})
	obs.ObserveProviderCall("admin_create_user", err)
	if err != nil {
		return "", translateIdentity("register", err)
	}

	sub := attributeValue(out.User, "sub")
	if sub == "" {
		// The pool always issues a subject; a missing one means the
		// response cannot be trusted.
		return "", errs.New(errs.UpstreamIdentity, "provider response is missing the issued subject")
	}

	// The admin API creates identities unconfirmed; the pool owns contact
	// verification elsewhere, so mark the channels verified up front.
	verified := []types.AttributeType{
		{Name: aws.String("email_verified"), Value: aws.String("true")},
	}
	if strings.TrimSpace(phone) != "" {
		verified = append(verified, types.AttributeType{Name: aws.String("phone_number_verified"), Value: aws.String("true")})
	}
	_, err = p.client.AdminUpdateUserAttributes(ctx, &cip.AdminUpdateUserAttributesInput{
		UserPoolId:     aws.String(p.userPoolID),
		Username:       aws.String(email),
		UserAttributes: verified,
	})
	obs.ObserveProviderCall("admin_update_user_attributes", err)
	if err != nil {
		return sub, translateIdentity("mark verified", err)
	}
	return sub, nil
}

func (p *CognitoProvider) UpdateAttributes(ctx context.Context, username, name, lastName, email, phone string) error {
	attrs := []types.AttributeType{
		{Name: aws.String("name"), Value: aws.String(name)},
		{Name: aws.String("family_name"), Value: aws.String(lastName)},
		{Name: aws.String("email"), Value: aws.String(email)},
	}
	if strings.TrimSpace(phone) != "" {
		attrs = append(attrs, types.AttributeType{Name: aws.String("phone_number"), Value: aws.String(phone)})
	}
	_, err := p.client.AdminUpdateUserAttributes(ctx, &cip.AdminUpdateUserAttributesInput{
		UserPoolId:     aws.String(p.userPoolID),
		Username:       aws.String(username),
		UserAttributes: attrs,
	})
	obs.ObserveProviderCall("admin_update_user_attributes", err)
	return translateIdentity("update attributes", err)
}

func (p *CognitoProvider) Delete(ctx context.Context, username string) error {
	_, err := p.client.AdminDeleteUser(ctx, &cip.AdminDeleteUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	obs.ObserveProviderCall("admin_delete_user", err)
	return translateIdentity("delete", err)
}

func (p *CognitoProvider) AddToGroup(ctx context.Context, username, group string) error {
	_, err := p.client.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
		GroupName:  aws.String(group),
	})
	obs.ObserveProviderCall("admin_add_user_to_group", err)
	return translateIdentity("add to group", err)
}

func (p *CognitoProvider) InitiateAuth(ctx context.Context, email, password string) (*AuthResult, error) {
	out, err := p.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	obs.ObserveProviderCall("initiate_auth", err)
	if err != nil {
		return nil, translateAuth("initiate auth", err)
	}

	if out.ChallengeName == types.ChallengeNameTypeNewPasswordRequired {
		return &AuthResult{Challenge: &Challenge{
			Kind:    ChallengeNewPasswordRequired,
			Session: aws.ToString(out.Session),
		}}, nil
	}
	if out.AuthenticationResult == nil {
		return nil, errs.New(errs.UpstreamAuth, "provider returned neither tokens nor a challenge")
	}
	return &AuthResult{Tokens: tokensFromResult(out.AuthenticationResult)}, nil
}

func (p *CognitoProvider) RespondToChallenge(ctx context.Context, email, newPassword, session string) (*Tokens, error) {
	out, err := p.client.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
		ClientId:      aws.String(p.clientID),
		Session:       aws.String(session),
		ChallengeResponses: map[string]string{
			"USERNAME":     email,
			"NEW_PASSWORD": newPassword,
		},
	})
	obs.ObserveProviderCall("respond_to_auth_challenge", err)
	if err != nil {
		return nil, translateAuth("respond to challenge", err)
	}
	if out.AuthenticationResult == nil {
		return nil, errs.New(errs.UpstreamAuth, "provider accepted the challenge but issued no tokens")
	}
	return tokensFromResult(out.AuthenticationResult), nil
}

func (p *CognitoProvider) GlobalSignOut(ctx context.Context, username string) error {
	_, err := p.client.AdminUserGlobalSignOut(ctx, &cip.AdminUserGlobalSignOutInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(username),
	})
	obs.ObserveProviderCall("admin_user_global_sign_out", err)
	return translateAuth("global sign-out", err)
}

func tokensFromResult(res *types.AuthenticationResultType) *Tokens {
	return &Tokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
		TokenType:    aws.ToString(res.TokenType),
	}
}

func attributeValue(user *types.UserType, name string) string {
	if user == nil {
		return ""
	}
	for _, attr := range user.Attributes {
		if aws.ToString(attr.Name) == name {
			return aws.ToString(attr.Value)
		}
	}
	return ""
}
