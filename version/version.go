// Package version reports the build of an infraglue binary, as printed by
// -version. go run ./build sets the variables through -ldflags.
package version // import "infraglue.org/version"

import (
	"fmt"
	"time"
)

var (
	Version = "0.3.0"

	// OfficialBuild is non-empty in release builds.
	OfficialBuild string
	// VersionDate is the build time as YYYYMMDDHHMMSS, UTC.
	VersionDate string
	VersionSHA  string
)

// GetVersionInfo returns e.g. "opsmetrics version 0.3.0-dev (abc123)".
func GetVersionInfo(app string) string {
	v := Version
	if OfficialBuild == "" {
		v += "-dev"
	}
	s := fmt.Sprintf("%s version %s (%s)", app, v, VersionSHA)
	if t, err := time.Parse("20060102150405", VersionDate); err == nil {
		s += " built " + t.Format(time.RFC3339)
	}
	return s
}
