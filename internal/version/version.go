// Package version holds build metadata, set through -ldflags "-X".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String is the one-line build description printed by `tabmark version`.
func String() string {
	return fmt.Sprintf("tabmark %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
