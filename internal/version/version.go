package version

// Build metadata, set with -ldflags "-X matchfeatures/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String renders the build metadata on one line.
func String() string {
	return Version + " (" + Commit + ", " + BuildDate + ")"
}
