package roletest

import (
	"fmt"
	"strings"

	"github.com/common-fate/clio"
	"github.com/common-fate/roletest/internal/build"
	"github.com/common-fate/roletest/pkg/assumer"
	"github.com/common-fate/roletest/pkg/autoassume"
	"github.com/common-fate/roletest/pkg/credfile"
	"github.com/common-fate/roletest/pkg/credprint"
	"github.com/urfave/cli/v2"
)

var CredentialProcess = cli.Command{
	Name:  "credential-process",
	Usage: "Exposes roletest as an AWS credential_process provider",
	Description: `Add roletest as a credential_process provider in ~/.aws/config:

[profile my-app-role]
credential_process = roletest credential-process --role=MyAppRole

The AWS CLI and SDKs then grant and assume the role on demand.
Run 'roletest credential-process setup --role=MyAppRole' to write the
profile for you.`,
	Subcommands: []*cli.Command{&credentialProcessSetupCommand},
	Flags: append(awsFlags(),
		&cli.StringFlag{Name: "role", Required: true, Usage: "The name of the role to assume"},
		&cli.StringFlag{Name: "session-name", Usage: "The session name for the assumed role session"},
		&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "The lifetime of the temporary credentials, e.g. 1h"},
		&cli.DurationFlag{Name: "wait", Value: assumer.DefaultWait, Usage: "How long to keep retrying assume-role while a trust policy change propagates"},
	),
	Action: func(c *cli.Context) error {
		ctx := c.Context

		awsCfg, err := loadAWSConfig(c)
		if err != nil {
			return err
		}

		creds, err := autoassume.New(awsCfg).AutoAssume(ctx, autoassume.Options{
			RoleName:        c.String("role"),
			SessionName:     c.String("session-name"),
			Duration:        c.Duration("duration"),
			PropagationWait: c.Duration("wait"),
		})
		if err != nil {
			return err
		}

		// stdout must carry nothing but the credential JSON: the calling SDK
		// parses it directly. All logging goes to stderr.
		out, err := credprint.CredentialProcessJSON(creds)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var credentialProcessSetupCommand = cli.Command{
	Name:  "setup",
	Usage: "Write a profile to your AWS config file which uses roletest as its credential_process",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "role", Required: true, Usage: "The name of the role the profile assumes"},
		&cli.StringFlag{Name: "profile-name", Usage: "The name of the profile to write (defaults to roletest-<role>)"},
		&cli.StringFlag{Name: "region", Usage: "The region written to the profile"},
	},
	Action: func(c *cli.Context) error {
		roleName := c.String("role")
		profileName := c.String("profile-name")
		if profileName == "" {
			profileName = "roletest-" + strings.ToLower(roleName)
		}

		command := fmt.Sprintf("%s credential-process --role=%s", build.BinaryName(), roleName)
		err := credfile.WriteCredentialProcessProfileToDefaultConfigFile(profileName, command, c.String("region"))
		if err != nil {
			return err
		}
		clio.Successf("Wrote profile %s to your AWS config file", profileName)
		clio.Infof("Try it out by running 'aws sts get-caller-identity --profile %s'", profileName)
		return nil
	},
}
