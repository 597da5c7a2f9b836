package roletest

import (
	"fmt"

	"github.com/common-fate/clio"
	"github.com/common-fate/clio/clierr"
	"github.com/common-fate/roletest/pkg/assumer"
	"github.com/common-fate/roletest/pkg/autoassume"
	"github.com/common-fate/roletest/pkg/config"
	"github.com/common-fate/roletest/pkg/console"
	"github.com/urfave/cli/v2"
)

var ConsoleCommand = cli.Command{
	Name:      "console",
	Usage:     "Assume a role and open the AWS console as it",
	UsageText: "roletest console [command options] [role-name]",
	Flags: append(awsFlags(),
		&cli.StringFlag{Name: "service", Usage: "The console destination to open, e.g. iam or s3"},
		&cli.BoolFlag{Name: "print", Aliases: []string{"p"}, Usage: "Print the sign-in URL instead of opening a browser"},
		&cli.StringFlag{Name: "session-name", Usage: "The session name for the assumed role session"},
		&cli.DurationFlag{Name: "wait", Value: assumer.DefaultWait, Usage: "How long to keep retrying assume-role while a trust policy change propagates"},
	),
	Action: func(c *cli.Context) error {
		ctx := c.Context

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		awsCfg, err := loadAWSConfig(c)
		if err != nil {
			return err
		}

		roleName := c.Args().First()
		if roleName == "" {
			roleName, err = pickRole(ctx, awsCfg, "")
			if err != nil {
				return err
			}
		}

		creds, err := autoassume.New(awsCfg).AutoAssume(ctx, autoassume.Options{
			RoleName:        roleName,
			SessionName:     sessionName(c.String("session-name"), false, cfg),
			PropagationWait: propagationWait(c, cfg),
		})
		if err != nil {
			return clierr.New(fmt.Sprintf("failed to assume role %s", roleName), clierr.Error(err))
		}

		service := c.String("service")
		if service == "" {
			service = cfg.ConsoleService
		}

		if c.Bool("print") {
			con := console.AWS{Region: awsCfg.Region, Service: service}
			u, err := con.URL(creds)
			if err != nil {
				return err
			}
			fmt.Println(u)
			return nil
		}

		clio.Infof("Opening the console as %s", roleName)
		return console.Open(creds, awsCfg.Region, service)
	},
}
