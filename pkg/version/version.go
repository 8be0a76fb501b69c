// Package version exposes build and release information for the agent.
package version

import (
	"fmt"
	"runtime"
)

// Semantic version components.
const (
	Major = 0
	Minor = 1
	Patch = 0
)

// Overridden at build time with -ldflags "-X baseintel/pkg/version.Commit=...".
var (
	PreRelease = ""
	Commit     = "unknown"
	BuildDate  = "unknown"
)

// AppName is shown in version strings and the health banner.
const AppName = "Base Token Intel"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Version returns the bare semantic version, e.g. "0.1.0".
func Version() string {
	v := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if PreRelease != "" {
		v += "-" + PreRelease
	}
	return v
}

// GetVersion returns the version prefixed with "v".
func GetVersion() string {
	return "v" + Version()
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version(),
		Major:     Major,
		Minor:     Minor,
		Patch:     Patch,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersionString is used in the startup log line.
func GetFullVersionString() string {
	info := GetBuildInfo()
	return fmt.Sprintf("%s %s (commit %s, %s, %s)", AppName, GetVersion(), info.Commit, info.GoVersion, info.Platform)
}

func IsPreRelease() bool {
	return PreRelease != ""
}

// CompareVersions returns -1, 0 or 1 as a is older, equal to or newer than b.
func CompareVersions(aMajor, aMinor, aPatch, bMajor, bMinor, bPatch int) int {
	for _, d := range [][2]int{{aMajor, bMajor}, {aMinor, bMinor}, {aPatch, bPatch}} {
		switch {
		case d[0] > d[1]:
			return 1
		case d[0] < d[1]:
			return -1
		}
	}
	return 0
}
