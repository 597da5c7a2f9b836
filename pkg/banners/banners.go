package banners

import (
	"fmt"

	"github.com/common-fate/roletest/internal/build"
)

func WithVersion() string {
	return fmt.Sprintf("roletest version: %s\n", build.Version)
}
