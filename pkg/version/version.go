package version

// Set by -ldflags during release builds.
var (
	Version   = "v0.0.0"
	GitCommit = "unknown"
)
