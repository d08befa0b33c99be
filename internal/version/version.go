// Package version exposes build metadata stamped at link time.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via ldflags at release build time, e.g.
// -X github.com/vitals-dev/vitals/internal/version.Version=v1.2.0
var (
	// Version is the release version, or "dev" for source builds
	Version = "dev"

	// Commit is the git commit hash the binary was built from
	Commit = "unknown"

	// Date is the build date
	Date = "unknown"

	// BuiltBy names the build system that produced the binary
	BuiltBy = "source"
)

// GetVersion returns the release version. Source builds installed with
// `go install` fall back to the module version recorded in build info.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

// GetFullVersion returns version, build, and platform details for
// verbose output
func GetFullVersion() string {
	return fmt.Sprintf("vitals %s\ncommit: %s\nbuilt: %s by %s\nplatform: %s (%s/%s)",
		GetVersion(), Commit, Date, BuiltBy,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
