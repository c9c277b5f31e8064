package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

var (
	version      = ""                     // Injected with a linker flag
	buildDate    = "1970-01-01T00:00:00Z" // Injected with a linker flag
	gitCommit    = ""                     // Injected with a linker flag
	gitTreeState = ""                     // Injected with a linker flag
)

// Version describes the build of the running binary.
type Version struct {
	Version      string    `json:"version"`
	BuildDate    time.Time `json:"buildDate"`
	GitCommit    string    `json:"gitCommit"`
	GitTreeDirty bool      `json:"gitTreeDirty"`
	GoVersion    string    `json:"goVersion"`
	Compiler     string    `json:"compiler"`
	Platform     string    `json:"platform"`
}

var ver = newVersion(version, buildDate, gitCommit, gitTreeState)

func newVersion(version, buildDate, gitCommit, gitTreeState string) Version {
	built, err := time.Parse(time.RFC3339, buildDate)
	if err != nil {
		built = time.Unix(0, 0).UTC()
	}
	// Builds without linker flags (go install, go run) still carry VCS info.
	if gitCommit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					gitCommit = setting.Value
				case "vcs.modified":
					if setting.Value == "false" {
						gitTreeState = "clean"
					}
				}
			}
		}
	}
	v := Version{
		Version:      version,
		BuildDate:    built,
		GitCommit:    gitCommit,
		GitTreeDirty: gitTreeState != "clean",
		GoVersion:    runtime.Version(),
		Compiler:     runtime.Compiler,
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if v.Version == "" || v.GitCommit == "" || v.GitTreeDirty {
		v.Version = "devel"
		if len(v.GitCommit) >= 7 {
			v.Version = fmt.Sprintf("%s+%s", v.Version, v.GitCommit[0:7])
		} else {
			v.Version = fmt.Sprintf("%s+unknown", v.Version)
		}
		if v.GitTreeDirty {
			v.Version = fmt.Sprintf("%s.dirty", v.Version)
		}
	}
	return v
}

// GetVersion returns information about the running build.
func GetVersion() Version {
	return ver
}
