// Package identity resolves the AWS principal behind the ambient
// credentials and formats role ARNs for that principal's account.
package identity

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/common-fate/clio"
	"github.com/pkg/errors"
)

// CallerIdentityAPI is the subset of the STS API used to resolve the
// caller's identity.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var _ CallerIdentityAPI = (*sts.Client)(nil)

// Identity is the AWS principal a set of credentials maps to.
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"user_id"`
}

// Resolver looks up the caller identity. Results are never cached; each
// call reflects the credentials in use at that moment.
type Resolver struct {
	sts CallerIdentityAPI
}

func NewResolver(cfg aws.Config) *Resolver {
	return &Resolver{sts: sts.NewFromConfig(cfg)}
}

// NewResolverFromAPI constructs a Resolver around an existing client.
func NewResolverFromAPI(api CallerIdentityAPI) *Resolver {
	return &Resolver{sts: api}
}

func (r *Resolver) Resolve(ctx context.Context) (Identity, error) {
	out, err := r.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, errors.Wrap(err, "getting caller identity")
	}
	id := Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}
	clio.Debugw("resolved caller identity", "account", id.Account, "arn", id.ARN)
	return id, nil
}
