package roletest

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/common-fate/clio"
	"github.com/common-fate/clio/clierr"
	"github.com/common-fate/roletest/pkg/identity"
	"github.com/common-fate/roletest/pkg/testable"
	"github.com/common-fate/roletest/pkg/trustpolicy"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var GrantCommand = cli.Command{
	Name:      "grant",
	Usage:     "Update a role's trust policy to allow a principal to assume it",
	UsageText: "roletest grant [command options] [role-name]",
	Flags: append(awsFlags(),
		&cli.StringFlag{Name: "principal", Usage: "The ARN to allow to assume the role (defaults to the caller's identity)"},
		&cli.BoolFlag{Name: "dry-run", Usage: "Print the trust policy that would be written without writing it"},
	),
	Action: GrantAction,
}

func GrantAction(c *cli.Context) error {
	ctx := c.Context

	awsCfg, err := loadAWSConfig(c)
	if err != nil {
		return err
	}

	roleName := c.Args().First()
	if roleName == "" {
		in := survey.Input{Message: "The name of the role to grant access to:"}
		err = testable.AskOne(&in, &roleName, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr))
		if err != nil {
			return err
		}
	}

	principal := c.String("principal")
	if principal == "" {
		id, err := identity.NewResolver(awsCfg).Resolve(ctx)
		if err != nil {
			return errors.Wrap(err, "resolving the current identity")
		}
		principal = id.ARN
	} else if err := identity.ValidatePrincipalARN(principal); err != nil {
		return clierr.New(err.Error(),
			clierr.Info("Pass the full ARN of the principal, e.g. arn:aws:iam::123456789012:user/alice"),
		)
	}

	up := trustpolicy.NewUpdater(awsCfg)

	if c.Bool("dry-run") {
		doc, err := up.Policy(ctx, roleName)
		if err != nil {
			return err
		}
		if doc.GrantAssumeRole(principal) {
			clio.Infof("The trust policy of %s would become:", roleName)
		} else {
			clio.Infof("The trust policy of %s already allows %s and would not change:", roleName, principal)
		}
		out, err := doc.EncodeIndent()
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	res, err := up.Grant(ctx, roleName, principal)
	if err != nil {
		return clierr.New(fmt.Sprintf("failed to update the trust policy of %s", roleName),
			clierr.Error(err),
			clierr.Info("Your current credentials need iam:GetRole and iam:UpdateAssumeRolePolicy permissions for this to work"),
		)
	}
	if !res.Updated {
		clio.Infof("The trust policy of %s already allows %s to assume it", roleName, principal)
	}
	return nil
}
