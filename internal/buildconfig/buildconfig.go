// Package buildconfig exposes build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/bernyforce/llm-council/internal/buildconfig.version=v1.2.0 \
//	  -X github.com/bernyforce/llm-council/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// UserAgent identifies the server on outbound provider calls.
func UserAgent() string {
	return "llm-council/" + version
}

// VersionInfo returns full version information
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
