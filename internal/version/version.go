// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set at link time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
