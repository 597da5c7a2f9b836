package roletest

import (
	"fmt"
	"os"

	"github.com/common-fate/clio/clierr"
	"github.com/common-fate/roletest/pkg/identity"
	"github.com/common-fate/roletest/pkg/sim"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var SimulateCommand = cli.Command{
	Name:      "simulate",
	Aliases:   []string{"sim"},
	Usage:     "Check whether a role's policies allow actions, without assuming it",
	UsageText: "roletest simulate [command options] [role-name] [action...]",
	Flags: append(awsFlags(),
		&cli.StringSliceFlag{Name: "resource", Aliases: []string{"r"}, Usage: "Resource ARNs to evaluate the actions against (defaults to all resources)"},
	),
	Action: func(c *cli.Context) error {
		ctx := c.Context

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

		actions := c.Args().Tail()
		if len(actions) == 0 {
			return clierr.New("no actions provided",
				clierr.Info("Pass the actions to check, e.g. 'roletest simulate MyAppRole s3:GetObject dynamodb:Query'"),
			)
		}

		id, err := identity.NewResolver(awsCfg).Resolve(ctx)
		if err != nil {
			return errors.Wrap(err, "resolving the current identity")
		}
		roleARN := identity.RoleARN(id.Account, roleName)

		results, err := sim.New(awsCfg).Simulate(ctx, roleARN, actions, c.StringSlice("resource"))
		if err != nil {
			return clierr.New(fmt.Sprintf("failed to simulate policies for %s", roleName),
				clierr.Error(err),
				clierr.Info("Your current credentials need iam:SimulatePrincipalPolicy for this to work"),
			)
		}

		data := make([][]string, 0, len(results))
		for _, r := range results {
			decision := color.New(color.FgRed).Sprint(r.Decision)
			if r.Allowed() {
				decision = color.New(color.FgGreen).Sprint(r.Decision)
			}
			data = append(data, []string{r.Action, r.Resource, decision})
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ACTION", "RESOURCE", "DECISION"})
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetHeaderLine(false)
		table.SetBorder(false)
		table.SetTablePadding("\t")
		table.SetNoWhiteSpace(true)
		table.AppendBulk(data)
		table.Render()

		return nil
	},
}
