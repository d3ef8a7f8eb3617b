// /internal/version/version.go
package version

import (
	"runtime"
	"runtime/debug"
)

const (
	AppName        = "server-console"
	AppDescription = "Admin console for the game server."
)

// Set with -ldflags "-X server-console/internal/version.BuildDate=..."
var (
	BuildDate string
	Commit    string
)

// GoVersion is the toolchain the binary was built with.
func GoVersion() string {
	return runtime.Version()
}

// Revision returns Commit, or the VCS revision recorded by the Go toolchain.
func Revision() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
