package assumer

import "github.com/segmentio/ksuid"

// UniqueSessionName generates a distinct session identifier so individual
// runs can be told apart in CloudTrail. The result is well under the 64
// character session name limit.
func UniqueSessionName() string {
	return "rtst-" + ksuid.New().String()
}
