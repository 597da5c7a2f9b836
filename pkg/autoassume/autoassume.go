// Package autoassume wires the identity, trust policy and assume-role steps
// into a single flow: grant the current identity access to a role, assume
// it, and hand back temporary credentials for testing the role's
// permission policy.
package autoassume

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/common-fate/clio"
	"github.com/common-fate/roletest/pkg/assumer"
	"github.com/common-fate/roletest/pkg/identity"
	"github.com/common-fate/roletest/pkg/trustpolicy"
	"github.com/pkg/errors"
)

// Options control a single auto-assume flow.
type Options struct {
	// RoleName is the name of the target role, without an ARN or path.
	RoleName string
	// SessionName defaults to assumer.DefaultSessionName.
	SessionName string
	// Duration of the temporary credentials. Zero leaves the STS default in
	// place.
	Duration time.Duration
	// PropagationWait bounds the assume-role retry window after a trust
	// policy write. Zero disables waiting. No wait happens when the trust
	// policy already allowed the caller.
	PropagationWait time.Duration
}

// Service runs the auto-assume flow. Construct it with New; tests populate
// the fields with clients built around fakes.
type Service struct {
	Identity *identity.Resolver
	Trust    *trustpolicy.Updater
	Assumer  *assumer.Assumer
}

func New(cfg aws.Config) *Service {
	return &Service{
		Identity: identity.NewResolver(cfg),
		Trust:    trustpolicy.NewUpdater(cfg),
		Assumer:  assumer.New(cfg),
	}
}

// AutoAssume grants the current identity access to assume the named role,
// assumes it, and returns the temporary credentials.
//
// Each step aborts the flow on failure: an identity failure means no IAM
// call is made, and a grant failure means no assume-role call is made. The
// trust policy change itself is never rolled back, so a later failure
// leaves the grant in place for the next run.
func (s *Service) AutoAssume(ctx context.Context, opts Options) (aws.Credentials, error) {
	id, err := s.Identity.Resolve(ctx)
	if err != nil {
		return aws.Credentials{}, errors.Wrap(err, "resolving the current identity")
	}

	res, err := s.Trust.Grant(ctx, opts.RoleName, id.ARN)
	if err != nil {
		return aws.Credentials{}, errors.Wrapf(err, "granting %s access to role %s", id.ARN, opts.RoleName)
	}

	roleARN := res.RoleARN
	if roleARN == "" {
		roleARN = identity.RoleARN(id.Account, opts.RoleName)
	}

	wait := opts.PropagationWait
	if !res.Updated {
		// the policy already allowed us, there is nothing to wait out
		wait = 0
	}

	creds, err := s.Assumer.Assume(ctx, assumer.Input{
		RoleARN:     roleARN,
		SessionName: opts.SessionName,
		Duration:    opts.Duration,
		WaitFor:     wait,
	})
	if err != nil {
		return aws.Credentials{}, err
	}

	clio.Debugw("auto assume complete", "role", roleARN, "principal", id.ARN)
	return creds, nil
}

// AutoAssume runs the flow once with default options and ambient AWS
// configuration. It is the smallest possible use of this package:
//
//	creds, err := autoassume.AutoAssume(ctx, "MyAppRole")
func AutoAssume(ctx context.Context, roleName string) (aws.Credentials, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Credentials{}, errors.Wrap(err, "loading AWS configuration")
	}
	return New(cfg).AutoAssume(ctx, Options{
		RoleName:        roleName,
		PropagationWait: assumer.DefaultWait,
	})
}
