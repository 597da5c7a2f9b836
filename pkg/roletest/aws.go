package roletest

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// awsFlags are shared by every command which calls AWS.
func awsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "region", Usage: "The AWS region to use, overriding the ambient configuration"},
		&cli.StringFlag{Name: "profile", Usage: "The AWS shared config profile to use"},
	}
}

// loadAWSConfig builds the SDK configuration from the ambient environment
// plus any --region and --profile overrides.
func loadAWSConfig(c *cli.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region := c.String("region"); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile := c.String("profile"); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(c.Context, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "loading AWS configuration")
	}
	return cfg, nil
}
