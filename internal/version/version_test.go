package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, version, commit, built string, info *debug.BuildInfo) {
	t.Helper()
	oldVersion, oldCommit, oldTime, oldRead := Version, GitCommit, BuildTime, readBuildInfo
	t.Cleanup(func() {
		Version, GitCommit, BuildTime, readBuildInfo = oldVersion, oldCommit, oldTime, oldRead
	})
	Version, GitCommit, BuildTime = version, commit, built
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
}

func TestReleaseBuild(t *testing.T) {
	withBuild(t, "v1.2.0", "0123456789abcdef", "2025-10-20T19:58:28Z", nil)

	assert.Equal(t, "v1.2.0", GetVersion())
	assert.Equal(t, "v1.2.0 (0123456)", GetShortVersion())

	info := GetBuildInfo()
	assert.Equal(t, time.Date(2025, 10, 20, 19, 58, 28, 0, time.UTC), info.BuildTime)
	assert.Contains(t, GetDetailedVersion(), "Commit: 0123456789abcdef")
	assert.Contains(t, GetDetailedVersion(), "Built: 2025-10-20T19:58:28Z")
}

func TestDevBuildReadsVCSSettings(t *testing.T) {
	withBuild(t, "dev", "unknown", "unknown", &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "fedcba9876543210"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, "dev-fedcba9", GetVersion())
	assert.Equal(t, "fedcba9876543210", GetGitCommit())
	assert.Equal(t, "dev-fedcba9", GetShortVersion())
	assert.True(t, IsDirty())
	assert.Contains(t, GetDetailedVersion(), "Commit: fedcba9876543210 (modified)")
	assert.NotContains(t, GetDetailedVersion(), "Built:")
}

func TestModuleVersion(t *testing.T) {
	withBuild(t, "", "", "", &debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}})
	assert.Equal(t, "v0.3.1", GetVersion())
	assert.Equal(t, "unknown", GetGitCommit())
	assert.False(t, IsDirty())
}

func TestNoBuildInfo(t *testing.T) {
	withBuild(t, "dev", "unknown", "not a time", nil)
	assert.Equal(t, "dev", GetVersion())
	assert.True(t, GetBuildInfo().BuildTime.IsZero())
}
