// Package version carries build metadata injected with -ldflags.
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

// UserAgent is sent with every HTTP fetch made by the loader.
func UserAgent() string {
	return fmt.Sprintf("splat.report/%s (%s)", Version, GitSHA)
}

// String formats the build metadata for the -version flag.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
