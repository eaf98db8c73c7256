package tlcache

// Version information for tlcache.
// Version and the build info can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/tlcache.Version=1.0.0"
const (
	// Name is the application name.
	Name = "tlcache"

	// Description is a short description of the application.
	Description = "Client-side translation cache with quota-aware eviction"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/tlcache"

	// License is the software license.
	License = "MIT"
)

var (
	// Version is the semantic version of the application.
	Version = "0.1.0"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with the short commit appended when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns a user agent string for HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
