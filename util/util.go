// Package util defines helpers shared by the scrapers and modules:
// running vendor programs, serializing runs with file locks, and name
// matching.
package util // import "infraglue.org/util"

import "github.com/ryanuber/go-glob"

// GlobMatches reports whether name matches any of the glob patterns. Only
// "*" is special.
func GlobMatches(name string, patterns []string) bool {
	for _, p := range patterns {
		if glob.Glob(p, name) {
			return true
		}
	}
	return false
}
