package roletest

import (
	"fmt"
	"os"
	"strings"

	"github.com/common-fate/clio/clierr"
	"github.com/common-fate/roletest/pkg/trustpolicy"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"sigs.k8s.io/yaml"
)

var PolicyCommand = cli.Command{
	Name:      "policy",
	Usage:     "Print the trust policy of a role",
	UsageText: "roletest policy [command options] [role-name]",
	Flags: append(awsFlags(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "json", Usage: "Output format: json, yaml or table"},
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

		doc, err := trustpolicy.NewUpdater(awsCfg).Policy(ctx, roleName)
		if err != nil {
			return err
		}

		switch c.String("output") {
		case "json":
			out, err := doc.EncodeIndent()
			if err != nil {
				return err
			}
			fmt.Println(out)

		case "yaml":
			out, err := yaml.Marshal(doc)
			if err != nil {
				return errors.Wrap(err, "marshalling trust policy document")
			}
			fmt.Print(string(out))

		case "table":
			data := make([][]string, 0, len(doc.Statement))
			for _, stmt := range doc.Statement {
				data = append(data, []string{
					stmt.Effect,
					principalDisplay(stmt),
					strings.Join(stmt.Action, ", "),
					conditionDisplay(stmt),
				})
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"EFFECT", "PRINCIPAL", "ACTION", "CONDITION"})
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

		default:
			return clierr.New(fmt.Sprintf("unknown output format %q", c.String("output")), clierr.Info("Choose one of json, yaml or table"))
		}
		return nil
	},
}

// principalDisplay flattens a statement's principal for table output,
// labelling the non-AWS principal types.
func principalDisplay(stmt trustpolicy.Statement) string {
	if stmt.Principal == nil {
		return ""
	}
	if stmt.Principal.All {
		return "*"
	}
	var parts []string
	parts = append(parts, stmt.Principal.AWS...)
	for _, v := range stmt.Principal.Service {
		parts = append(parts, v+" (service)")
	}
	for _, v := range stmt.Principal.Federated {
		parts = append(parts, v+" (federated)")
	}
	for _, v := range stmt.Principal.CanonicalUser {
		parts = append(parts, v+" (canonical user)")
	}
	return strings.Join(parts, ", ")
}

func conditionDisplay(stmt trustpolicy.Statement) string {
	if len(stmt.Condition) == 0 {
		return ""
	}
	return string(stmt.Condition)
}
