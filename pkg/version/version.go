// Package version holds the build version, set with -ldflags at release time.
package version

// Version is overridden via -ldflags "-X github.com/futureCreator/patchgate/pkg/version.Version=...".
var Version = "dev"
