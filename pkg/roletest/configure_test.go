package roletest

import (
	"sort"
	"testing"

	"github.com/common-fate/roletest/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	got := fieldOptions(&cfg)

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assert.Equal(t, []string{
		"AssumeDuration",
		"ConsoleService",
		"DefaultOutput",
		"DisableUsageTips",
		"ExportProfileSuffix",
		"PropagationWait",
		"SessionName",
		"UniqueSessionNames",
	}, keys)
}

func TestFieldSet(t *testing.T) {
	cfg := config.NewDefaultConfig()
	fields := fieldOptions(&cfg)

	require.NoError(t, fields["DisableUsageTips"].set(true))
	assert.True(t, cfg.DisableUsageTips)

	require.NoError(t, fields["SessionName"].set("MySession"))
	assert.Equal(t, "MySession", cfg.SessionName)

	assert.Error(t, fields["SessionName"].set(struct{}{}))
}
