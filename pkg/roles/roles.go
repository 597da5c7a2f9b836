// Package roles enumerates the IAM roles in the caller's account for the
// roles command and the interactive picker.
package roles

import (
	"context"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/common-fate/grab"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	"go.uber.org/ratelimit"
)

// ListRolesAPI is the subset of the IAM API used to enumerate roles.
type ListRolesAPI interface {
	ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error)
}

var _ ListRolesAPI = (*iam.Client)(nil)

// Role is the subset of IAM role attributes the tool displays.
type Role struct {
	Name string
	ARN  string
	Path string
}

type Lister struct {
	iam ListRolesAPI
	rl  ratelimit.Limiter
}

// pagesPerSecond paces ListRoles calls. Accounts with thousands of roles
// page many times and IAM throttles hard.
const pagesPerSecond = 5

func NewLister(cfg aws.Config) *Lister {
	return &Lister{iam: iam.NewFromConfig(cfg), rl: ratelimit.New(pagesPerSecond)}
}

// NewListerFromAPI constructs a Lister around an existing client.
func NewListerFromAPI(api ListRolesAPI) *Lister {
	return &Lister{iam: api, rl: ratelimit.New(pagesPerSecond)}
}

// List drains every page of ListRoles and returns the roles sorted by name.
func (l *Lister) List(ctx context.Context) ([]Role, error) {
	all, err := grab.AllPages(ctx, func(ctx context.Context, nextToken *string) ([]Role, *string, error) {
		l.rl.Take()
		page, err := l.iam.ListRoles(ctx, &iam.ListRolesInput{Marker: nextToken})
		if err != nil {
			return nil, nil, errors.Wrap(err, "listing roles")
		}
		roles := grab.Map(page.Roles, func(r types.Role) Role {
			return Role{
				Name: aws.ToString(r.RoleName),
				ARN:  aws.ToString(r.Arn),
				Path: aws.ToString(r.Path),
			}
		})
		if page.IsTruncated {
			return roles, page.Marker, nil
		}
		return roles, nil, nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// Filter returns the roles whose names fuzzy-match query, best matches
// first. An empty query returns the input unchanged.
func Filter(list []Role, query string) []Role {
	if query == "" {
		return list
	}
	byName := make(map[string]Role, len(list))
	names := make([]string, 0, len(list))
	for _, r := range list {
		byName[r.Name] = r
		names = append(names, r.Name)
	}
	ranks := fuzzy.RankFindFold(query, names)
	sort.Sort(ranks)
	out := make([]Role, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, byName[rank.Target])
	}
	return out
}
