// internal/bundle/version.go
//
// Bundle version comparison.
//
// Versions are plain "major.minor.patch" strings in the defaults files and
// in `seo_metabundles.bundle_version`.  Comparison is semantic, never
// lexical.
package bundle

import (
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalVersion turns "1.0.0" into "v1.0.0" for x/mod/semver.  Empty
// and malformed strings come back unchanged and compare lowest.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// versionNewer reports whether builtin is strictly greater than persisted.
func versionNewer(builtin, persisted string) bool {
	return semver.Compare(canonicalVersion(builtin), canonicalVersion(persisted)) > 0
}
