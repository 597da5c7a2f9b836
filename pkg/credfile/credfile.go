// Package credfile writes assumed credentials to the files developers
// commonly test against: a named profile in the shared AWS credentials
// file, or AWS_* keys in a local .env file.
//
// Both writers are opt-in; nothing in the core assume flow persists
// credentials.
package credfile

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/bigkevmcd/go-configparser"
	"github.com/common-fate/roletest/pkg/testable"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// WriteProfileToDefaultCredentialsFile writes creds under profileName in
// the shared credentials file at its default location (~/.aws/credentials).
func WriteProfileToDefaultCredentialsFile(profileName string, creds aws.Credentials) error {
	return WriteProfileToCredentialsFile(profileName, creds, config.DefaultSharedCredentialsFilename())
}

// WriteProfileToCredentialsFile writes creds to the credentials file at
// path under a profile name header, replacing the section if it exists.
func WriteProfileToCredentialsFile(profileName string, creds aws.Credentials, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = f.Close()
		if err != nil {
			return err
		}
		fmt.Fprintln(color.Error, "Created file.")
	}

	credFile, err := configparser.NewConfigParserFromFile(path)
	if err != nil {
		return err
	}

	if credFile.HasSection(profileName) {
		err := credFile.RemoveSection(profileName)
		if err != nil {
			return err
		}
	}
	err = credFile.AddSection(profileName)
	if err != nil {
		return err
	}
	err = credFile.Set(profileName, "aws_access_key_id", creds.AccessKeyID)
	if err != nil {
		return err
	}
	err = credFile.Set(profileName, "aws_secret_access_key", creds.SecretAccessKey)
	if err != nil {
		return err
	}
	err = credFile.Set(profileName, "aws_session_token", creds.SessionToken)
	if err != nil {
		return err
	}
	return credFile.SaveWithDelimiter(path, "=")
}

// WriteCredentialProcessProfileToDefaultConfigFile writes the profile to
// the AWS config file at its default location (~/.aws/config).
func WriteCredentialProcessProfileToDefaultConfigFile(profileName string, command string, region string) error {
	return WriteCredentialProcessProfile(profileName, command, region, config.DefaultSharedConfigFilename())
}

// WriteCredentialProcessProfile writes a profile to the AWS config file at
// path with command as its credential_process, replacing the section if it
// exists.
func WriteCredentialProcessProfile(profileName string, command string, region string, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = f.Close()
		if err != nil {
			return err
		}
		fmt.Fprintln(color.Error, "Created file.")
	}

	configFile, err := configparser.NewConfigParserFromFile(path)
	if err != nil {
		return err
	}

	sectionName := "profile " + profileName
	if configFile.HasSection(sectionName) {
		err := configFile.RemoveSection(sectionName)
		if err != nil {
			return err
		}
	}
	err = configFile.AddSection(sectionName)
	if err != nil {
		return err
	}
	err = configFile.Set(sectionName, "credential_process", command)
	if err != nil {
		return err
	}
	if region != "" {
		err = configFile.Set(sectionName, "region", region)
		if err != nil {
			return err
		}
	}
	return configFile.SaveWithDelimiter(path, "=")
}

// WriteCredentialsToDotenv upserts the AWS_* keys in the .env file in the
// current directory, prompting to create the file when it is missing.
func WriteCredentialsToDotenv(region string, creds aws.Credentials) error {
	withStdio := survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)
	if _, err := os.Stat("./.env"); os.IsNotExist(err) {
		ans := false
		err = testable.AskOne(&survey.Confirm{Message: "No .env file found in the current directory, would you like to create one?"}, &ans, withStdio)
		if err != nil {
			return err
		}
		if !ans {
			return errors.New(".env file does not exist and creation was aborted")
		}
		f, err := os.Create("./.env")
		if err != nil {
			return err
		}
		err = f.Close()
		if err != nil {
			return err
		}
		fmt.Fprintln(color.Error, "Created .env file.")
	}

	myEnv, err := godotenv.Read()
	if err != nil {
		return err
	}

	myEnv["AWS_ACCESS_KEY_ID"] = creds.AccessKeyID
	myEnv["AWS_SECRET_ACCESS_KEY"] = creds.SecretAccessKey
	myEnv["AWS_SESSION_TOKEN"] = creds.SessionToken
	if region != "" {
		myEnv["AWS_REGION"] = region
	}

	return godotenv.Write(myEnv, "./.env")
}
