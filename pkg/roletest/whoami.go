package roletest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/common-fate/clio/clierr"
	"github.com/common-fate/roletest/pkg/identity"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var WhoamiCommand = cli.Command{
	Name:  "whoami",
	Usage: "Print the identity your current AWS credentials map to",
	Flags: append(awsFlags(),
		&cli.BoolFlag{Name: "json", Usage: "Print the identity as JSON"},
	),
	Action: func(c *cli.Context) error {
		ctx := c.Context

		awsCfg, err := loadAWSConfig(c)
		if err != nil {
			return err
		}

		id, err := identity.NewResolver(awsCfg).Resolve(ctx)
		if err != nil {
			return clierr.New("failed to resolve the current identity",
				clierr.Error(err),
				clierr.Info("Check that credentials are available, e.g. by running 'aws configure' or exporting AWS_PROFILE"),
			)
		}

		if c.Bool("json") {
			out, err := json.Marshal(id)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		data := [][]string{
			{"ACCOUNT", id.Account},
			{"ARN", id.ARN},
			{"USER ID", id.UserID},
		}

		table := tablewriter.NewWriter(os.Stdout)
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
