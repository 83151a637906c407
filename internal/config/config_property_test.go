//go:build property
// +build property

package config

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests validation properties
func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: ports inside the range always validate, ports outside never do
	properties.Property("port range", prop.ForAll(
		func(port int) bool {
			cfg := &Config{Preview: PreviewConfig{Host: "localhost", Port: port}}
			err := Validate(cfg)
			inRange := port >= 0 && port <= 65535
			return (err == nil) == inRange
		},
		gen.IntRange(-100000, 100000),
	))

	// Property: a path with a ".." segment is always rejected
	properties.Property("traversal is rejected", prop.ForAll(
		func(before, after []string) bool {
			segments := append(append(append([]string{}, before...), ".."), after...)
			return validatePath(strings.Join(segments, "/")) != nil
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	// Property: alphanumeric relative paths are always accepted
	properties.Property("plain paths are accepted", prop.ForAll(
		func(segments []string) bool {
			return validatePath(strings.Join(segments, "/")) == nil
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
