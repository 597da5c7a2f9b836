// Package credprint renders temporary credentials in the formats the CLI
// offers: shell export lines, the AWS credential_process JSON contract and
// a human-readable expiry notice.
package credprint

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"
)

// ExportLines renders creds as eval-able shell export statements. Values
// are quoted so session tokens containing shell metacharacters round-trip.
func ExportLines(creds aws.Credentials, region string) string {
	lines := []string{
		"export AWS_ACCESS_KEY_ID=" + shellescape.Quote(creds.AccessKeyID),
		"export AWS_SECRET_ACCESS_KEY=" + shellescape.Quote(creds.SecretAccessKey),
	}
	if creds.SessionToken != "" {
		lines = append(lines, "export AWS_SESSION_TOKEN="+shellescape.Quote(creds.SessionToken))
	}
	if region != "" {
		lines = append(lines, "export AWS_REGION="+shellescape.Quote(region))
	}
	return strings.Join(lines, "\n")
}

// awsCredsStdOut is the schema consumed by AWS CLI credential_process:
// https://docs.aws.amazon.com/cli/latest/userguide/cli-configure-sourcing-external.html
type awsCredsStdOut struct {
	Version         int    `json:"Version"`
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken,omitempty"`
	Expiration      string `json:"Expiration,omitempty"`
}

// CredentialProcessJSON renders creds in the credential_process schema.
func CredentialProcessJSON(creds aws.Credentials) (string, error) {
	out := awsCredsStdOut{
		Version:         1,
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
	}
	if creds.CanExpire {
		out.Expiration = creds.Expires.Format(time.RFC3339)
	}
	jsonOut, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "marshalling session credentials")
	}
	return string(jsonOut), nil
}

// ExpiryNotice describes when creds expire, e.g. "credentials will expire
// in 59 minutes".
func ExpiryNotice(creds aws.Credentials, now time.Time) string {
	if !creds.CanExpire {
		return "credentials do not expire"
	}
	if !creds.Expires.After(now) {
		return "credentials have expired"
	}
	left := durafmt.Parse(creds.Expires.Sub(now)).LimitFirstN(1)
	return fmt.Sprintf("credentials will expire in %s", left)
}
