package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set by ldflags in release builds. Dev builds fall back to the build
// metadata Go embeds in the binary.
var (
	AppName   = "rpmrelay"
	Version   = "0.1.0-dev"
	Revision  = "HEAD"
	BuildDate = ""
)

const (
	devVersion  = "0.1.0-dev"
	devRevision = "HEAD"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		fill(info.Main.Version, readVCS(info))
	}
	if BuildDate == "" {
		BuildDate = time.Now().UTC().Format(time.RFC3339)
	}
}

type vcsInfo struct {
	revision string
	time     string
	modified bool
}

func readVCS(info *debug.BuildInfo) vcsInfo {
	var v vcsInfo
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			v.revision = s.Value
		case "vcs.time":
			v.time = s.Value
		case "vcs.modified":
			v.modified = s.Value == "true"
		}
	}
	return v
}

// fill keeps whatever ldflags provided and completes the rest from the
// build metadata.
func fill(moduleVersion string, v vcsInfo) {
	if Version == devVersion || Version == "" {
		if moduleVersion != "" && moduleVersion != "(devel)" {
			Version = strings.TrimPrefix(moduleVersion, "v")
		}
	}
	if Revision == devRevision || Revision == "" {
		if v.revision != "" {
			Revision = v.revision
			if v.modified {
				Revision += "-dirty"
			}
		}
	}
	if BuildDate == "" {
		BuildDate = v.time
	}
}

// Short renders "0.1.0 (5e23a4)".
func Short() string {
	return fmt.Sprintf("%s (%s)", Version, Revision)
}

// Detailed renders "0.1.0 (5e23a4; go1.23.6; linux/amd64; <date>)".
func Detailed() string {
	return fmt.Sprintf("%s (%s; %s; %s/%s; %s)",
		Version, Revision, runtime.Version(), runtime.GOOS, runtime.GOARCH, BuildDate)
}

// DetailedWithApp prefixes Detailed with the binary name.
func DetailedWithApp() string {
	return AppName + " " + Detailed()
}
