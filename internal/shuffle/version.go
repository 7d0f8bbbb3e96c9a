package shuffle

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// FormatVersion stamps the spill layout. Bump the major version whenever the
// bucket naming or value encoding changes.
const FormatVersion = "v2.0.0"

// IsCompatibleVersion reports whether data written with storedVersion can be
// read by code at currentVersion. Only the major version has to match.
func IsCompatibleVersion(storedVersion, currentVersion string) (bool, error) {
	if !semver.IsValid(storedVersion) {
		return false, fmt.Errorf("invalid stored version: %q", storedVersion)
	}
	if !semver.IsValid(currentVersion) {
		return false, fmt.Errorf("invalid current version: %q", currentVersion)
	}

	return semver.Major(storedVersion) == semver.Major(currentVersion), nil
}
