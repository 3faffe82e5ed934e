package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	defer func(o, d, s string) { OfficialBuild, VersionDate, VersionSHA = o, d, s }(OfficialBuild, VersionDate, VersionSHA)

	OfficialBuild, VersionDate, VersionSHA = "", "", "abc123"
	assert.Equal(t, "opsmetrics version "+Version+"-dev (abc123)", GetVersionInfo("opsmetrics"))
	// Repeated calls must not keep appending the suffix.
	assert.Equal(t, GetVersionInfo("opsmetrics"), GetVersionInfo("opsmetrics"))

	OfficialBuild, VersionDate = "1", "20260102030405"
	assert.Equal(t, "unzip version "+Version+" (abc123) built 2026-01-02T03:04:05Z", GetVersionInfo("unzip"))
}
