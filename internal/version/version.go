// Package version reports the build version. Override it with
//
//	go build -ldflags "-X github.com/ramonehamilton/LoR-Companion/internal/version.Version=v0.3.0"
package version

// Version defaults to "dev".
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}

// UserAgent identifies the companion in outgoing HTTP requests.
func UserAgent() string {
	return "lor-companion/" + Version
}
