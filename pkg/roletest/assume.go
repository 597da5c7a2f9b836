package roletest

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/common-fate/clio"
	"github.com/common-fate/clio/clierr"
	"github.com/common-fate/roletest/internal/build"
	"github.com/common-fate/roletest/pkg/assumer"
	"github.com/common-fate/roletest/pkg/autoassume"
	"github.com/common-fate/roletest/pkg/config"
	"github.com/common-fate/roletest/pkg/console"
	"github.com/common-fate/roletest/pkg/credfile"
	"github.com/common-fate/roletest/pkg/credprint"
	"github.com/common-fate/roletest/pkg/frecency"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var AssumeCommand = cli.Command{
	Name:      "assume",
	Usage:     "Grant yourself access to a role, assume it and print the temporary credentials",
	UsageText: "roletest assume [command options] [role-name]",
	Flags: append(awsFlags(),
		&cli.StringFlag{Name: "session-name", Usage: "The session name for the assumed role session"},
		&cli.BoolFlag{Name: "unique-session", Usage: "Generate a unique session name for this run so it can be told apart in CloudTrail"},
		&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "The lifetime of the temporary credentials, e.g. 1h"},
		&cli.DurationFlag{Name: "wait", Value: assumer.DefaultWait, Usage: "How long to keep retrying assume-role while a trust policy change propagates"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Credential output format: env, json or none"},
		&cli.BoolFlag{Name: "verify", Usage: "Prove the credentials work by resolving the identity they map to"},
		&cli.BoolFlag{Name: "console", Aliases: []string{"c"}, Usage: "Open the AWS console as the assumed role"},
		&cli.StringFlag{Name: "service", Usage: "The console destination opened by --console, e.g. iam or s3"},
		&cli.StringFlag{Name: "export-profile", Usage: "Also write the credentials to the shared AWS credentials file under this profile name"},
		&cli.BoolFlag{Name: "export-dotenv", Usage: "Also write the credentials to the .env file in the current directory"},
	),
	Action: AssumeAction,
}

func AssumeAction(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	awsCfg, err := loadAWSConfig(c)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	roleName := c.Args().First()
	if roleName == "" {
		roleName, err = pickRole(ctx, awsCfg, "")
		if err != nil {
			return err
		}
	} else {
		// background task to update the frecency cache
		name := roleName
		wg.Add(1)
		go func() {
			frecency.UpdateRoleFrecency(name)
			wg.Done()
		}()
	}
	// ensure that frecency has finished updating before returning from this function
	defer wg.Wait()

	opts := autoassume.Options{
		RoleName:        roleName,
		SessionName:     sessionName(c.String("session-name"), c.Bool("unique-session"), cfg),
		Duration:        assumeDuration(c, cfg),
		PropagationWait: propagationWait(c, cfg),
	}

	svc := autoassume.New(awsCfg)

	var si *spinner.Spinner
	if isTerminal() {
		si = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		si.Suffix = " assuming " + roleName + "..."
		si.Writer = os.Stderr
		si.Start()
	}
	creds, err := svc.AutoAssume(ctx, opts)
	if si != nil {
		si.Stop()
	}
	if err != nil {
		return clierr.New(fmt.Sprintf("failed to assume role %s", roleName),
			clierr.Error(err),
			clierr.Info("Your current credentials need iam:GetRole, iam:UpdateAssumeRolePolicy and sts:AssumeRole permissions for this to work"),
		)
	}

	if c.Bool("verify") {
		vid, err := svc.Assumer.Verify(ctx, creds)
		if err != nil {
			return errors.Wrap(err, "verifying the assumed credentials")
		}
		clio.Successf("Assumed identity %s", vid.ARN)
	}

	output := c.String("output")
	if output == "" {
		output = cfg.DefaultOutput
	}
	if output == "" {
		output = "env"
	}
	switch output {
	case "env":
		fmt.Println(credprint.ExportLines(creds, awsCfg.Region))
	case "json":
		out, err := credprint.CredentialProcessJSON(creds)
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "none":
	default:
		return clierr.New(fmt.Sprintf("unknown output format %q", output), clierr.Info("Choose one of env, json or none"))
	}

	clio.Info(credprint.ExpiryNotice(creds, time.Now()))

	if profileName := c.String("export-profile"); profileName != "" {
		if cfg.ExportProfileSuffix != "" {
			profileName = profileName + "-" + cfg.ExportProfileSuffix
		}
		if err := credfile.WriteProfileToDefaultCredentialsFile(profileName, creds); err != nil {
			return errors.Wrap(err, "writing the shared credentials file")
		}
		clio.Successf("Saved credentials to profile %s", profileName)
	}

	if c.Bool("export-dotenv") {
		if err := credfile.WriteCredentialsToDotenv(awsCfg.Region, creds); err != nil {
			return errors.Wrap(err, "writing the .env file")
		}
		clio.Success("Saved credentials to the .env file")
	}

	if c.Bool("console") {
		service := c.String("service")
		if service == "" {
			service = cfg.ConsoleService
		}
		if err := console.Open(creds, awsCfg.Region, service); err != nil {
			return errors.Wrap(err, "opening the AWS console")
		}
	}

	if !cfg.DisableUsageTips && output == "env" && isTerminal() {
		cmd := color.New(color.Bold).Sprintf("eval \"$(%s assume %s)\"", build.BinaryName(), roleName)
		clio.Infof("To load these credentials into your shell, run:\n%s", cmd)
	}

	return nil
}

// sessionName resolves the session name from the flag, the stored config
// and the unique-name setting. An empty result leaves the default in place.
func sessionName(flagValue string, unique bool, cfg *config.Config) string {
	if unique || (flagValue == "" && cfg.UniqueSessionNames) {
		return assumer.UniqueSessionName()
	}
	if flagValue != "" {
		return flagValue
	}
	return cfg.SessionName
}

func assumeDuration(c *cli.Context, cfg *config.Config) time.Duration {
	if c.IsSet("duration") {
		return c.Duration("duration")
	}
	if cfg.AssumeDuration != "" {
		d, err := time.ParseDuration(cfg.AssumeDuration)
		if err != nil {
			clio.Warnf("Ignoring invalid AssumeDuration %q in config: %s", cfg.AssumeDuration, err)
			return 0
		}
		return d
	}
	return 0
}

func propagationWait(c *cli.Context, cfg *config.Config) time.Duration {
	if c.IsSet("wait") {
		return c.Duration("wait")
	}
	if cfg.PropagationWait != "" {
		d, err := time.ParseDuration(cfg.PropagationWait)
		if err != nil {
			clio.Warnf("Ignoring invalid PropagationWait %q in config: %s", cfg.PropagationWait, err)
			return assumer.DefaultWait
		}
		return d
	}
	return c.Duration("wait")
}
