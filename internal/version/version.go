// Package version carries build identification stamped in by the Makefile via
// -ldflags. Reported on the /health endpoint and by the version subcommand so
// a granule product can be traced back to the binary that wrote it.
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the composite build identifier used in logs and reports.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
