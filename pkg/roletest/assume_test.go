package roletest

import (
	"strings"
	"testing"

	"github.com/common-fate/roletest/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestSessionName(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		unique bool
		cfg    config.Config
		want   string
	}{
		{name: "flag wins over config", flag: "MySession", cfg: config.Config{SessionName: "FromConfig"}, want: "MySession"},
		{name: "config fallback", cfg: config.Config{SessionName: "FromConfig"}, want: "FromConfig"},
		{name: "empty leaves the default in place", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sessionName(tt.flag, tt.unique, &tt.cfg)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionNameUnique(t *testing.T) {
	got := sessionName("MySession", true, &config.Config{})
	assert.True(t, strings.HasPrefix(got, "rtst-"), "unique flag should win over an explicit name, got %s", got)

	got = sessionName("", false, &config.Config{UniqueSessionNames: true})
	assert.True(t, strings.HasPrefix(got, "rtst-"), "stored unique-names preference should apply, got %s", got)

	// an explicit name overrides the stored unique-names preference
	got = sessionName("MySession", false, &config.Config{UniqueSessionNames: true})
	assert.Equal(t, "MySession", got)
}
