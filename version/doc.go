// Package version reports the running build: the version stamped at
// compile time, the git commit, and the build date.
//
// Version, commit, and build time are set via -ldflags:
//
//	go build -ldflags "-X github.com/marciopocebon/bolt-1/version.Version=1.0.0"
//
// Unstamped builds fall back to the VCS metadata the Go toolchain
// embeds, so "go install" binaries still report a commit.
package version
