// Package version exposes the build version string.
package version

// Version is overridden at build time via
// -ldflags "-X github.com/rbxkit/playerstore/internal/version.Version=v1.2.3".
var Version = "dev"

// String returns the current version.
func String() string {
	return Version
}
