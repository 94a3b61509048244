package webproxy

// Version information. GitCommit and BuildDate can be overridden at build
// time with -ldflags.
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Name is the project name.
const Name = "webproxy"
