// Package version holds build metadata injected at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/plugindocs/internal/version.Version=v1.2.0" ./cmd/plugindocs
package version

import "fmt"

// Version is the release of the binary, "dev" for local builds.
var Version = "dev"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the line printed by --version.
func String() string {
	return fmt.Sprintf("plugindocs %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// UserAgent identifies outbound archive requests.
func UserAgent() string {
	return "plugindocs/" + Version
}
