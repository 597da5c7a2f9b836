package roletest

import (
	"github.com/common-fate/clio"
	"github.com/common-fate/roletest/internal/build"
	"github.com/common-fate/roletest/pkg/banners"
	"github.com/common-fate/roletest/pkg/config"
	"github.com/urfave/cli/v2"
)

func GetCliApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		clio.Log(banners.WithVersion())
	}

	flags := []cli.Flag{
		&cli.BoolFlag{Name: "verbose", Usage: "Log debug messages"},
	}

	app := &cli.App{
		Flags:       flags,
		Name:        "roletest",
		Usage:       "Iterate on IAM role permission policies by assuming the role you are working on",
		UsageText:   "roletest [global options] command [command options] [arguments...]",
		Version:     build.Version,
		HideVersion: false,
		Commands: []*cli.Command{
			&AssumeCommand,
			&GrantCommand,
			&PolicyCommand,
			&SimulateCommand,
			&RolesCommand,
			&WhoamiCommand,
			&ConsoleCommand,
			&CredentialProcess,
			&ConfigCommand,
		},
		EnableBashCompletion: true,
		Before: func(c *cli.Context) error {
			clio.SetLevelFromEnv("ROLETEST_LOG")
			if c.Bool("verbose") {
				clio.SetLevelFromString("debug")
			}
			if err := config.SetupConfigFolder(); err != nil {
				return err
			}
			return nil
		},
	}

	return app
}
