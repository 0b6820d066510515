package version

// Version and Commit are vars (not consts) so release builds can override
// them:
//
//	go build -ldflags "-X github.com/strandview/strand/pkg/version.Version=v0.3.0 \
//	  -X github.com/strandview/strand/pkg/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "v0.1.0-dev"
	Commit  = ""
)

// String returns the version with the commit suffix when one was stamped.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
