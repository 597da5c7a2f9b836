package assumer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/common-fate/roletest/pkg/identity"
)

// Verify proves a set of assumed-role credentials work by resolving the
// identity they map to.
func (a *Assumer) Verify(ctx context.Context, creds aws.Credentials) (identity.Identity, error) {
	client := sts.New(sts.Options{
		Credentials: credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		Region:      a.region,
	})
	return identity.NewResolverFromAPI(client).Resolve(ctx)
}
