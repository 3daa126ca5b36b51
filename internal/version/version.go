// Package version holds build identification, overridden at link time with
// -ldflags "-X github.com/banshee-data/aptdec/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a single-line description of the build.
func String() string {
	return fmt.Sprintf("aptdec %s (%s, built %s)", Version, GitSHA, BuildTime)
}
