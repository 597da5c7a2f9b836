// Package sim checks what a role can do by running its policies through the
// IAM policy simulator, without assuming the role.
package sim

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/common-fate/grab"
	"github.com/pkg/errors"
)

// SimulateAPI is the subset of the IAM API used to simulate policies.
type SimulateAPI interface {
	SimulatePrincipalPolicy(ctx context.Context, params *iam.SimulatePrincipalPolicyInput, optFns ...func(*iam.Options)) (*iam.SimulatePrincipalPolicyOutput, error)
}

var _ SimulateAPI = (*iam.Client)(nil)

// Result is the evaluation outcome for a single action and resource pair.
type Result struct {
	Action   string
	Resource string
	Decision string
}

// Allowed reports whether the simulator decided the action is permitted.
func (r Result) Allowed() bool {
	return r.Decision == string(types.PolicyEvaluationDecisionTypeAllowed)
}

type Simulator struct {
	iam SimulateAPI
}

func New(cfg aws.Config) *Simulator {
	return &Simulator{iam: iam.NewFromConfig(cfg)}
}

// NewFromAPI constructs a Simulator around an existing client.
func NewFromAPI(api SimulateAPI) *Simulator {
	return &Simulator{iam: api}
}

// Simulate evaluates actions against the policies attached to principalARN.
// With no resources the simulator evaluates against all resources.
func (s *Simulator) Simulate(ctx context.Context, principalARN string, actions []string, resources []string) ([]Result, error) {
	input := iam.SimulatePrincipalPolicyInput{
		PolicySourceArn: aws.String(principalARN),
		ActionNames:     actions,
	}
	if len(resources) > 0 {
		input.ResourceArns = resources
	}

	evaluations, err := grab.AllPages(ctx, func(ctx context.Context, nextToken *string) ([]types.EvaluationResult, *string, error) {
		input.Marker = nextToken
		out, err := s.iam.SimulatePrincipalPolicy(ctx, &input)
		if err != nil {
			return nil, nil, err
		}
		if out.IsTruncated {
			return out.EvaluationResults, out.Marker, nil
		}
		return out.EvaluationResults, nil, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "simulating policies for %s", principalARN)
	}

	return grab.Map(evaluations, func(e types.EvaluationResult) Result {
		return Result{
			Action:   aws.ToString(e.EvalActionName),
			Resource: aws.ToString(e.EvalResourceName),
			Decision: string(e.EvalDecision),
		}
	}), nil
}
