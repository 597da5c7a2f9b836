package autoassume

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
	"github.com/common-fate/roletest/pkg/assumer"
	"github.com/common-fate/roletest/pkg/identity"
	"github.com/common-fate/roletest/pkg/trustpolicy"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIdentityAPI struct {
	err   error
	calls int
}

func (m *mockIdentityAPI) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:user/alice"),
		UserId:  aws.String("AIDAEXAMPLE"),
	}, nil
}

type mockTrustAPI struct {
	policy    string
	getErr    error
	updateErr error

	getCalls    int
	updateCalls int
	written     string
}

func (m *mockTrustAPI) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &iam.GetRoleOutput{Role: &iamtypes.Role{
		RoleName:                 params.RoleName,
		Arn:                      aws.String("arn:aws:iam::123456789012:role/" + aws.ToString(params.RoleName)),
		AssumeRolePolicyDocument: aws.String(url.QueryEscape(m.policy)),
	}}, nil
}

func (m *mockTrustAPI) UpdateAssumeRolePolicy(ctx context.Context, params *iam.UpdateAssumeRolePolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAssumeRolePolicyOutput, error) {
	m.updateCalls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.written = aws.ToString(params.PolicyDocument)
	return &iam.UpdateAssumeRolePolicyOutput{}, nil
}

type mockSTSAPI struct {
	denials int

	calls int
	in    *sts.AssumeRoleInput
}

func (m *mockSTSAPI) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	m.calls++
	m.in = params
	if m.calls <= m.denials {
		return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "not authorized"}
	}
	return &sts.AssumeRoleOutput{Credentials: &ststypes.Credentials{
		AccessKeyId:     aws.String("ASIAEXAMPLE"),
		SecretAccessKey: aws.String("secret"),
		SessionToken:    aws.String("token"),
		Expiration:      aws.Time(time.Now().Add(time.Hour)),
	}}, nil
}

func newTestService(idAPI *mockIdentityAPI, trustAPI *mockTrustAPI, stsAPI *mockSTSAPI) *Service {
	a := assumer.NewFromAPI(stsAPI)
	a.PollInterval = time.Millisecond
	return &Service{
		Identity: identity.NewResolverFromAPI(idAPI),
		Trust:    trustpolicy.NewUpdaterFromAPI(trustAPI),
		Assumer:  a,
	}
}

func TestAutoAssume(t *testing.T) {
	ctx := context.Background()

	t.Run("grants and assumes with the default session name", func(t *testing.T) {
		idAPI := &mockIdentityAPI{}
		trustAPI := &mockTrustAPI{policy: `{"Version":"2012-10-17","Statement":[]}`}
		stsAPI := &mockSTSAPI{}
		svc := newTestService(idAPI, trustAPI, stsAPI)

		creds, err := svc.AutoAssume(ctx, Options{RoleName: "TestRole"})
		require.NoError(t, err)

		assert.Equal(t, 1, trustAPI.updateCalls)
		written, err := trustpolicy.Decode(trustAPI.written)
		require.NoError(t, err)
		require.Len(t, written.Statement, 1)
		assert.True(t, written.AllowsAssumeRole("arn:aws:iam::123456789012:user/alice"))

		assert.Equal(t, "arn:aws:iam::123456789012:role/TestRole", aws.ToString(stsAPI.in.RoleArn))
		assert.Equal(t, "TestRoleSession", aws.ToString(stsAPI.in.RoleSessionName))
		assert.Equal(t, "ASIAEXAMPLE", creds.AccessKeyID)
	})

	t.Run("identity failure stops the flow before any IAM call", func(t *testing.T) {
		idAPI := &mockIdentityAPI{err: errors.New("ExpiredToken: the security token is expired")}
		trustAPI := &mockTrustAPI{policy: `{}`}
		stsAPI := &mockSTSAPI{}
		svc := newTestService(idAPI, trustAPI, stsAPI)

		_, err := svc.AutoAssume(ctx, Options{RoleName: "TestRole"})
		assert.ErrorContains(t, err, "resolving the current identity")
		assert.Equal(t, 0, trustAPI.getCalls)
		assert.Equal(t, 0, trustAPI.updateCalls)
		assert.Equal(t, 0, stsAPI.calls)
	})

	t.Run("grant failure stops the flow before assuming", func(t *testing.T) {
		idAPI := &mockIdentityAPI{}
		trustAPI := &mockTrustAPI{getErr: errors.New("NoSuchEntity: role not found")}
		stsAPI := &mockSTSAPI{}
		svc := newTestService(idAPI, trustAPI, stsAPI)

		_, err := svc.AutoAssume(ctx, Options{RoleName: "TestRole"})
		assert.ErrorContains(t, err, "granting arn:aws:iam::123456789012:user/alice access to role TestRole")
		assert.Equal(t, 0, stsAPI.calls)
	})

	t.Run("existing grant skips the write and the wait", func(t *testing.T) {
		idAPI := &mockIdentityAPI{}
		trustAPI := &mockTrustAPI{policy: `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":"arn:aws:iam::123456789012:user/alice"},"Action":"sts:AssumeRole"}]}`}
		stsAPI := &mockSTSAPI{}
		svc := newTestService(idAPI, trustAPI, stsAPI)

		_, err := svc.AutoAssume(ctx, Options{
			RoleName:        "TestRole",
			PropagationWait: time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, trustAPI.updateCalls)
		assert.Equal(t, 1, stsAPI.calls)
	})

	t.Run("waits out propagation after a fresh grant", func(t *testing.T) {
		idAPI := &mockIdentityAPI{}
		trustAPI := &mockTrustAPI{policy: `{"Version":"2012-10-17","Statement":[]}`}
		stsAPI := &mockSTSAPI{denials: 2}
		svc := newTestService(idAPI, trustAPI, stsAPI)

		creds, err := svc.AutoAssume(ctx, Options{
			RoleName:        "TestRole",
			PropagationWait: time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, stsAPI.calls)
		assert.Equal(t, "ASIAEXAMPLE", creds.AccessKeyID)
	})

	t.Run("custom session name and duration are passed through", func(t *testing.T) {
		idAPI := &mockIdentityAPI{}
		trustAPI := &mockTrustAPI{policy: `{}`}
		stsAPI := &mockSTSAPI{}
		svc := newTestService(idAPI, trustAPI, stsAPI)

		_, err := svc.AutoAssume(ctx, Options{
			RoleName:    "TestRole",
			SessionName: "rtst-custom",
			Duration:    30 * time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, "rtst-custom", aws.ToString(stsAPI.in.RoleSessionName))
		assert.Equal(t, int32(1800), aws.ToInt32(stsAPI.in.DurationSeconds))
	})
}
