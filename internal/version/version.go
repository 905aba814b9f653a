// Package version holds build metadata, set with -ldflags "-X".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"     // ex: v0.1.0
	Commit    = "none"    // ex: abcd123
	BuildDate = "unknown" // ex: 2026-06-01T08:00:00Z
	GoVersion = runtime.Version()
)

// String is the one-line build banner logged at startup.
func String() string {
	return fmt.Sprintf("link-reminder %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
