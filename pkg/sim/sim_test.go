package sim

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSimulateAPI struct {
	pages [][]types.EvaluationResult
	err   error
	calls int
	in    *iam.SimulatePrincipalPolicyInput
}

func (m *mockSimulateAPI) SimulatePrincipalPolicy(ctx context.Context, params *iam.SimulatePrincipalPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulatePrincipalPolicyOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.in = params
	page := m.pages[m.calls]
	m.calls++
	out := iam.SimulatePrincipalPolicyOutput{EvaluationResults: page}
	if m.calls < len(m.pages) {
		out.IsTruncated = true
		out.Marker = aws.String("next")
	}
	return &out, nil
}

func TestSimulate(t *testing.T) {
	api := &mockSimulateAPI{pages: [][]types.EvaluationResult{
		{
			{EvalActionName: aws.String("s3:GetObject"), EvalResourceName: aws.String("*"), EvalDecision: types.PolicyEvaluationDecisionTypeAllowed},
		},
		{
			{EvalActionName: aws.String("dynamodb:Query"), EvalResourceName: aws.String("*"), EvalDecision: types.PolicyEvaluationDecisionTypeImplicitDeny},
		},
	}}

	got, err := NewFromAPI(api).Simulate(context.Background(), "arn:aws:iam::123456789012:role/TestRole", []string{"s3:GetObject", "dynamodb:Query"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, api.calls, "expected the truncated result set to be drained")
	require.Len(t, got, 2)
	assert.Equal(t, Result{Action: "s3:GetObject", Resource: "*", Decision: "allowed"}, got[0])
	assert.True(t, got[0].Allowed())
	assert.Equal(t, Result{Action: "dynamodb:Query", Resource: "*", Decision: "implicitDeny"}, got[1])
	assert.False(t, got[1].Allowed())
	assert.Equal(t, "arn:aws:iam::123456789012:role/TestRole", aws.ToString(api.in.PolicySourceArn))
}

func TestSimulatePassesResources(t *testing.T) {
	api := &mockSimulateAPI{pages: [][]types.EvaluationResult{{}}}

	_, err := NewFromAPI(api).Simulate(context.Background(), "arn:aws:iam::123456789012:role/TestRole", []string{"s3:GetObject"}, []string{"arn:aws:s3:::my-bucket/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"arn:aws:s3:::my-bucket/*"}, api.in.ResourceArns)
}

func TestSimulateError(t *testing.T) {
	api := &mockSimulateAPI{err: errors.New("access denied")}

	_, err := NewFromAPI(api).Simulate(context.Background(), "arn:aws:iam::123456789012:role/TestRole", []string{"s3:GetObject"}, nil)
	assert.ErrorContains(t, err, "simulating policies for arn:aws:iam::123456789012:role/TestRole")
}
