// Package console exchanges temporary credentials for an authenticated AWS
// management console URL using the sign-in federation endpoint.
//
// see: https://docs.aws.amazon.com/IAM/latest/UserGuide/example_sts_Scenario_ConstructFederatedUrl_section.html
package console

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/common-fate/clio"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
)

// Hosts are fixed to the standard partition. GovCloud and China sign-in
// endpoints are not supported.
const (
	federationHost = "signin.aws.amazon.com"
	consolePrefix  = "https://console.aws.amazon.com/"
)

type AWS struct {
	Region  string
	Service string

	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

// awsSession is the JSON payload sent to AWS to exchange a set of session
// credentials for a console sign-in token.
type awsSession struct {
	// SessionID maps to AWS Access Key ID
	SessionID string `json:"sessionId"`
	// SessionKey maps to AWS Secret Access Key
	SessionKey string `json:"sessionKey"`
	// SessionToken maps to AWS Session Token
	SessionToken string `json:"sessionToken"`
}

// URL retrieves an authorised access URL for the AWS console. The URL
// carries a sign-in token obtained by exchanging the session credentials at
// the federation endpoint.
func (a AWS) URL(creds aws.Credentials) (string, error) {
	sess := awsSession{
		SessionID:    creds.AccessKeyID,
		SessionKey:   creds.SecretAccessKey,
		SessionToken: creds.SessionToken,
	}
	sessJSON, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "https",
		Host:   federationHost,
		Path:   "/federation",
	}
	q := u.Query()
	q.Add("Action", "getSigninToken")
	q.Add("Session", string(sessJSON))
	u.RawQuery = q.Encode()

	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Get(u.String())
	if err != nil {
		return "", errors.Wrap(err, "requesting signin token")
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("exchanging credentials for a signin token failed with code %v", res.StatusCode)
	}

	token := struct {
		SigninToken string `json:"SigninToken"`
	}{}
	if err := json.NewDecoder(res.Body).Decode(&token); err != nil {
		return "", errors.Wrap(err, "decoding signin token")
	}

	u = url.URL{
		Scheme: "https",
		Host:   federationHost,
		Path:   "/federation",
	}
	q = u.Query()
	q.Add("Action", "login")
	q.Add("Issuer", "")
	q.Add("Destination", a.destinationURL())
	q.Add("SigninToken", token.SigninToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (a AWS) destinationURL() string {
	service := a.Service
	_, global := globalServiceMap[service]
	if mapped, ok := ServiceMap[service]; ok {
		service = mapped
	} else {
		clio.Warnf("We don't recognize service %s but we'll try and open it anyway (you may receive a 404 page)", service)
	}
	dest := consolePrefix + service + "/home"
	if !global && a.Region != "" {
		dest += "?region=" + a.Region
	}
	return dest
}

// Open launches the system browser at the console URL for creds.
func Open(creds aws.Credentials, region string, service string) error {
	u, err := AWS{Region: region, Service: service}.URL(creds)
	if err != nil {
		return err
	}
	clio.Debugw("opening console", "service", service, "region", region)
	return browser.OpenURL(u)
}
