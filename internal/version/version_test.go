package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withVars(t *testing.T, v, c string) {
	t.Helper()
	oldV, oldC := Version, Commit
	Version, Commit = v, c
	t.Cleanup(func() { Version, Commit = oldV, oldC })
}

func TestFromBuildInfo(t *testing.T) {
	withVars(t, "", "")

	fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-03-14T09:26:53Z"},
		},
	}, true)

	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q, want 0123456-dirty", Commit)
	}
	if Version != "dev-20260314" {
		t.Errorf("Version = %q, want dev-20260314", Version)
	}
}

func TestFromBuildInfoModuleVersion(t *testing.T) {
	withVars(t, "", "")

	fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "v1.4.0"}}, true)
	if Version != "v1.4.0" {
		t.Errorf("Version = %q, want v1.4.0", Version)
	}
}

func TestFromBuildInfoKeepsLdflags(t *testing.T) {
	withVars(t, "v2.0.0", "abc1234")

	fromBuildInfo(&debug.BuildInfo{
		Main:     debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fffffffffff"}},
	}, true)

	if Version != "v2.0.0" || Commit != "abc1234" {
		t.Errorf("ldflags values overwritten: %s %s", Version, Commit)
	}

	fromBuildInfo(nil, false)
	if Version != "v2.0.0" {
		t.Error("missing build info should change nothing")
	}
}

func TestGetAndFull(t *testing.T) {
	withVars(t, "v1.0.0", "abc1234")

	info := Get()
	if info.Version != "v1.0.0" || info.Commit != "abc1234" {
		t.Errorf("Get() = %+v", info)
	}
	if !strings.HasPrefix(info.GoVersion, "go") || !strings.Contains(info.Platform, "/") {
		t.Errorf("Get() runtime fields = %+v", info)
	}
	if Full() != "v1.0.0 (commit: abc1234)" {
		t.Errorf("Full() = %q", Full())
	}
}
