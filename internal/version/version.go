// Package version holds build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/HerbHall/toolshed/internal/version.Version=v0.1.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Info returns a single-line description of the build.
func Info() string {
	return fmt.Sprintf("toolshed %s (commit %s, built %s, %s/%s)",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}
