package identity

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// partition is fixed to the standard AWS partition. GovCloud and China
// region ARNs are not supported.
const partition = "aws"

// RoleARN formats the ARN of an IAM role in the given account.
func RoleARN(accountID, roleName string) string {
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", partition, accountID, roleName)
}

// ParseRoleARN extracts the account ID and role name from an IAM role ARN.
// Roles under a path return the final segment as the name.
func ParseRoleARN(arn string) (accountID string, roleName string, err error) {
	parts := strings.Split(arn, ":")
	if len(parts) != 6 || parts[0] != "arn" {
		return "", "", errors.Errorf("invalid role ARN %q: expected 6 colon-separated sections", arn)
	}
	if parts[2] != "iam" {
		return "", "", errors.Errorf("invalid role ARN %q: service is %q, expected iam", arn, parts[2])
	}
	resource := parts[5]
	if !strings.HasPrefix(resource, "role/") {
		return "", "", errors.Errorf("invalid role ARN %q: resource is not a role", arn)
	}
	name := strings.TrimPrefix(resource, "role/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return "", "", errors.Errorf("invalid role ARN %q: missing role name", arn)
	}
	return parts[4], name, nil
}

// ValidatePrincipalARN checks that arn is a principal a trust policy
// statement can name: an IAM user, role or root ARN, or an STS assumed-role
// ARN. IAM accepts any well-formed JSON in UpdateAssumeRolePolicy, so a
// mistyped principal would otherwise be persisted onto the role and only
// surface when assuming it fails.
func ValidatePrincipalARN(arn string) error {
	parts := strings.Split(arn, ":")
	if len(parts) != 6 || parts[0] != "arn" {
		return errors.Errorf("invalid principal ARN %q: expected 6 colon-separated sections", arn)
	}
	resource := parts[5]
	switch parts[2] {
	case "iam":
		if strings.HasPrefix(resource, "role/") {
			_, _, err := ParseRoleARN(arn)
			return err
		}
		if resource == "root" || strings.HasPrefix(resource, "user/") {
			return nil
		}
		return errors.Errorf("invalid principal ARN %q: expected a user, role or root principal", arn)
	case "sts":
		if !strings.HasPrefix(resource, "assumed-role/") {
			return errors.Errorf("invalid principal ARN %q: expected an assumed-role principal", arn)
		}
		return nil
	default:
		return errors.Errorf("invalid principal ARN %q: service is %q, expected iam or sts", arn, parts[2])
	}
}
