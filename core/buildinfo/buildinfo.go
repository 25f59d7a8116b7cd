// Package buildinfo exposes build metadata injected via ldflags.
package buildinfo

var (
	// Version is the semantic version of the library build.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)
