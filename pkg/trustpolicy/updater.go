package trustpolicy

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/common-fate/clio"
	"github.com/pkg/errors"
)

// RoleTrustAPI is the subset of the IAM API used to read and replace a
// role's trust policy.
type RoleTrustAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	UpdateAssumeRolePolicy(ctx context.Context, params *iam.UpdateAssumeRolePolicyInput, optFns ...func(*iam.Options)) (*iam.UpdateAssumeRolePolicyOutput, error)
}

var _ RoleTrustAPI = (*iam.Client)(nil)

// Updater performs the read-modify-write cycle on a role's trust policy.
//
// The write replaces the whole document, so two writers racing on the same
// role can lose statements. Grants are never rolled back: the tool exists
// for iterating on a role's permission policies, and removing the trust
// entry between runs would make every run pay the propagation delay again.
type Updater struct {
	iam RoleTrustAPI
}

func NewUpdater(cfg aws.Config) *Updater {
	return &Updater{iam: iam.NewFromConfig(cfg)}
}

// NewUpdaterFromAPI constructs an Updater around an existing client.
func NewUpdaterFromAPI(api RoleTrustAPI) *Updater {
	return &Updater{iam: api}
}

// GrantResult reports what Grant did so the caller can decide whether to
// wait out IAM propagation before assuming the role.
type GrantResult struct {
	// Updated is false when the principal was already allowed and no write
	// was made.
	Updated bool
	// RoleARN is the target role's ARN as reported by IAM. It includes the
	// role's path, which the name alone cannot reconstruct.
	RoleARN string
}

// Grant ensures the trust policy of roleName allows principalARN to call
// sts:AssumeRole, appending an Allow statement if none names the principal
// yet.
func (u *Updater) Grant(ctx context.Context, roleName string, principalARN string) (GrantResult, error) {
	out, err := u.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		return GrantResult{}, errors.Wrapf(err, "getting role %s", roleName)
	}

	doc, err := Decode(aws.ToString(out.Role.AssumeRolePolicyDocument))
	if err != nil {
		return GrantResult{}, errors.Wrapf(err, "reading the trust policy of role %s", roleName)
	}

	res := GrantResult{RoleARN: aws.ToString(out.Role.Arn)}

	if doc.DeniesAssumeRole(principalARN) {
		clio.Warnf("the trust policy of %s explicitly denies %s: an Allow statement will be added but the Deny takes precedence, so assuming the role will still fail until the Deny is removed", roleName, principalARN)
	}

	if !doc.GrantAssumeRole(principalARN) {
		clio.Debugw("principal already allowed to assume role", "role", roleName, "principal", principalARN)
		return res, nil
	}

	policy, err := doc.Encode()
	if err != nil {
		return GrantResult{}, err
	}

	_, err = u.iam.UpdateAssumeRolePolicy(ctx, &iam.UpdateAssumeRolePolicyInput{
		RoleName:       aws.String(roleName),
		PolicyDocument: aws.String(policy),
	})
	if err != nil {
		return GrantResult{}, errors.Wrapf(err, "updating the trust policy of role %s", roleName)
	}

	clio.Infof("Updated the trust policy of %s to allow %s to assume it", roleName, principalARN)
	res.Updated = true
	return res, nil
}

// Policy fetches and decodes the current trust policy of roleName without
// modifying it.
func (u *Updater) Policy(ctx context.Context, roleName string) (*Document, error) {
	out, err := u.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		return nil, errors.Wrapf(err, "getting role %s", roleName)
	}
	doc, err := Decode(aws.ToString(out.Role.AssumeRolePolicyDocument))
	if err != nil {
		return nil, errors.Wrapf(err, "reading the trust policy of role %s", roleName)
	}
	return doc, nil
}
