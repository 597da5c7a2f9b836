package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleARN(t *testing.T) {
	got := RoleARN("123456789012", "TestRole")
	assert.Equal(t, "arn:aws:iam::123456789012:role/TestRole", got)
}

func TestParseRoleARN(t *testing.T) {
	tests := []struct {
		name         string
		give         string
		wantAccount  string
		wantRoleName string
		wantErr      bool
	}{
		{
			name:         "plain role",
			give:         "arn:aws:iam::123456789012:role/TestRole",
			wantAccount:  "123456789012",
			wantRoleName: "TestRole",
		},
		{
			name:         "role with path",
			give:         "arn:aws:iam::123456789012:role/service/deep/TestRole",
			wantAccount:  "123456789012",
			wantRoleName: "TestRole",
		},
		{
			name:    "not an arn",
			give:    "TestRole",
			wantErr: true,
		},
		{
			name:    "wrong service",
			give:    "arn:aws:sts::123456789012:role/TestRole",
			wantErr: true,
		},
		{
			name:    "user arn",
			give:    "arn:aws:iam::123456789012:user/alice",
			wantErr: true,
		},
		{
			name:    "missing role name",
			give:    "arn:aws:iam::123456789012:role/",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, roleName, err := ParseRoleARN(tt.give)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantAccount, account)
			assert.Equal(t, tt.wantRoleName, roleName)
		})
	}
}

func TestValidatePrincipalARN(t *testing.T) {
	tests := []struct {
		name    string
		give    string
		wantErr string
	}{
		{name: "user", give: "arn:aws:iam::123456789012:user/alice"},
		{name: "role", give: "arn:aws:iam::123456789012:role/TestRole"},
		{name: "role with path", give: "arn:aws:iam::123456789012:role/service/TestRole"},
		{name: "account root", give: "arn:aws:iam::123456789012:root"},
		{name: "assumed role session", give: "arn:aws:sts::123456789012:assumed-role/TestRole/TestRoleSession"},
		{
			name:    "bare name",
			give:    "alice",
			wantErr: "expected 6 colon-separated sections",
		},
		{
			name:    "group",
			give:    "arn:aws:iam::123456789012:group/admins",
			wantErr: "expected a user, role or root principal",
		},
		{
			name:    "role arn without a name",
			give:    "arn:aws:iam::123456789012:role/",
			wantErr: "missing role name",
		},
		{
			name:    "sts federated user",
			give:    "arn:aws:sts::123456789012:federated-user/bob",
			wantErr: "expected an assumed-role principal",
		},
		{
			name:    "wrong service",
			give:    "arn:aws:s3:::my-bucket",
			wantErr: "expected iam or sts",
		},
		{
			name:    "lambda arn",
			give:    "arn:aws:lambda:us-east-1:123456789012:function:fn",
			wantErr: "expected 6 colon-separated sections",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrincipalARN(tt.give)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
