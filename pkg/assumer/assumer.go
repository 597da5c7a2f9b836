// Package assumer exchanges the caller's credentials for temporary
// credentials of a target role.
//
// Trust policy changes are eventually consistent: an AssumeRole call made
// straight after updating a role's trust policy can be refused, and IAM
// caches the failed evaluation for a short time. The assumer rides this out
// by retrying denied calls on a fixed interval until the configured wait
// elapses.
package assumer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/aws/smithy-go"
	"github.com/common-fate/clio"
	"github.com/pkg/errors"
	sethRetry "github.com/sethvargo/go-retry"
)

// DefaultSessionName is used unless the caller overrides it. Test suites
// asserting on assumed-role session ARNs can rely on this exact value.
const DefaultSessionName = "TestRoleSession"

// DefaultWait bounds the propagation retry window after a trust policy
// change.
const DefaultWait = time.Minute

const defaultPollInterval = 5 * time.Second

// AssumeRoleAPI is the subset of the STS API used to assume a role.
type AssumeRoleAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

var _ AssumeRoleAPI = (*sts.Client)(nil)

type Assumer struct {
	sts AssumeRoleAPI

	// region is carried so Verify can build a client around the assumed
	// credentials.
	region string

	// PollInterval overrides the delay between denied attempts. Zero means
	// the 5 second default.
	PollInterval time.Duration
}

func New(cfg aws.Config) *Assumer {
	return &Assumer{sts: sts.NewFromConfig(cfg), region: cfg.Region}
}

// NewFromAPI constructs an Assumer around an existing client.
func NewFromAPI(api AssumeRoleAPI) *Assumer {
	return &Assumer{sts: api}
}

// Input controls a single assume-role exchange.
type Input struct {
	RoleARN string
	// SessionName defaults to DefaultSessionName.
	SessionName string
	// Duration of the temporary credentials. Zero leaves the STS default in
	// place.
	Duration time.Duration
	// WaitFor bounds how long denied calls are retried while a trust policy
	// change propagates. Zero makes a single attempt.
	WaitFor time.Duration
}

// Assume requests temporary credentials for in.RoleARN. Access denied
// responses are retried until in.WaitFor elapses; any other failure aborts
// immediately.
func (a *Assumer) Assume(ctx context.Context, in Input) (aws.Credentials, error) {
	if in.SessionName == "" {
		in.SessionName = DefaultSessionName
	}

	req := &sts.AssumeRoleInput{
		RoleArn:         aws.String(in.RoleARN),
		RoleSessionName: aws.String(in.SessionName),
	}
	if in.Duration != 0 {
		req.DurationSeconds = aws.Int32(int32(in.Duration.Seconds()))
	}

	interval := a.PollInterval
	if interval == 0 {
		interval = defaultPollInterval
	}

	var out *sts.AssumeRoleOutput

	b := sethRetry.NewConstant(interval)
	b = sethRetry.WithMaxDuration(in.WaitFor, b)
	err := sethRetry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		out, err = a.sts.AssumeRole(ctx, req)
		if err == nil {
			return nil
		}
		if isAccessDenied(err) {
			clio.Debugw("assume role denied, waiting for the trust policy to propagate", "role", in.RoleARN, "error", err.Error())
			return sethRetry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if isAccessDenied(err) && in.WaitFor > 0 {
			return aws.Credentials{}, errors.Wrapf(err, "assuming role %s was still denied after %s", in.RoleARN, in.WaitFor)
		}
		return aws.Credentials{}, errors.Wrapf(err, "assuming role %s", in.RoleARN)
	}

	creds := credentialsFromSTS(out.Credentials)
	clio.Debugw("assumed role", "role", in.RoleARN, "sessionName", in.SessionName, "expires", creds.Expires.String())
	return creds, nil
}

// credentialsFromSTS converts the STS credential type into the SDK's
// aws.Credentials.
func credentialsFromSTS(c *types.Credentials) aws.Credentials {
	if c == nil {
		return aws.Credentials{}
	}
	return aws.Credentials{
		AccessKeyID:     aws.ToString(c.AccessKeyId),
		SecretAccessKey: aws.ToString(c.SecretAccessKey),
		SessionToken:    aws.ToString(c.SessionToken),
		CanExpire:       c.Expiration != nil,
		Expires:         aws.ToTime(c.Expiration),
		Source:          "roletest",
	}
}

// isAccessDenied reports whether err is the STS AccessDenied API error, the
// failure mode of an assume-role call evaluated against a stale trust
// policy.
func isAccessDenied(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied"
}
