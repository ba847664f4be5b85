// Package version holds build-time version information.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Full returns the complete version string.
func Full() string {
	return fmt.Sprintf("encore %s, commit %s, built at %s", Version, Commit, Date)
}
