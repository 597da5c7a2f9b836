package roletest

import (
	"os"

	"github.com/common-fate/clio"
	"github.com/common-fate/roletest/pkg/roles"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var RolesCommand = cli.Command{
	Name:      "roles",
	Usage:     "List the IAM roles in the account",
	UsageText: "roletest roles [command options] [filter]",
	Flags:     awsFlags(),
	Action: func(c *cli.Context) error {
		ctx := c.Context

		awsCfg, err := loadAWSConfig(c)
		if err != nil {
			return err
		}

		all, err := roles.NewLister(awsCfg).List(ctx)
		if err != nil {
			return err
		}

		filtered := roles.Filter(all, c.Args().First())
		if len(filtered) == 0 {
			clio.Info("No roles found")
			return nil
		}

		data := make([][]string, 0, len(filtered))
		for _, r := range filtered {
			data = append(data, []string{r.Name, r.ARN})
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ROLE", "ARN"})
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
