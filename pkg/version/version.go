package version

import (
	"fmt"

	"github.com/blang/semver/v4"
)

// SpacerVersion indicates what version of chcsolve the binary belongs to
var SpacerVersion string

// GitCommit indicates which git commit the binary was built from
var GitCommit string

// String returns a pretty string concatenation of SpacerVersion and GitCommit
func String() string {
	return fmt.Sprintf("Spacer Version: %s\n Git commit: %s\n", Semver(), GitCommit)
}

// Semver parses SpacerVersion. Unset or malformed versions read as
// 0.0.0-dev.
func Semver() semver.Version {
	v, err := semver.ParseTolerant(SpacerVersion)
	if err != nil {
		return semver.Version{Pre: []semver.PRVersion{{VersionStr: "dev"}}}
	}
	return v
}
